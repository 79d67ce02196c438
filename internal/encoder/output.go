package encoder

import (
	"io"
	"os"
)

// fileOutput is a single-file artifact written under a temporary name and
// committed to final only on success.
type fileOutput struct {
	env   *Env
	final string
	f     *os.File
}

func newFileOutput(env *Env, final string) *fileOutput {
	return &fileOutput{env: env, final: final}
}

func (o *fileOutput) open() (io.Writer, error) {
	f, err := o.env.Files.Create(o.final)
	if err != nil {
		return nil, err
	}
	o.f = f
	return f, nil
}

func (o *fileOutput) opened() bool { return o.f != nil }

// commit closes the temporary file, renames it into place and returns its size.
func (o *fileOutput) commit() (int64, error) {
	st, err := o.f.Stat()
	if err != nil {
		o.abort()
		return 0, err
	}
	if err := o.f.Close(); err != nil {
		o.abort()
		return 0, err
	}
	if err := o.env.Files.Commit(o.f.Name()); err != nil {
		o.abort()
		return 0, err
	}
	return st.Size(), nil
}

// commitClosed commits a file whose writer has already closed it.
func (o *fileOutput) commitClosed() (int64, error) {
	st, err := os.Stat(o.f.Name())
	if err != nil {
		o.abort()
		return 0, err
	}
	if err := o.env.Files.Commit(o.f.Name()); err != nil {
		o.abort()
		return 0, err
	}
	return st.Size(), nil
}

func (o *fileOutput) abort() {
	if o.f == nil {
		return
	}
	o.f.Close()
	o.env.Files.Remove(o.f.Name())
}
