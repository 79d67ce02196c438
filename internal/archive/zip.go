// Package archive assembles a compressed multi-entry container.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zip"
)

// PartSuffix marks a container that is still being written.
const PartSuffix = ".part"

// Tracker owns the partial container and the entry temp files. It lets a
// concurrent cancellation remove them while the archive is being written.
type Tracker interface {
	// Create opens a registered temporary file that Commit renames to final.
	Create(final string) (*os.File, error)
	Commit(temp string) error
	Remove(temp string) error
}

// Writer writes one zip archive. Entries are written one at a time, either
// streamed with BeginEntry/EndEntry or copied from a temp file with AddEntry.
type Writer struct {
	dest    string
	part    string
	file    *os.File
	zw      *zip.Writer
	files   Tracker
	open    string
	entries int
	done    bool
}

// Create starts an archive whose bytes go to dest + PartSuffix until Finish.
// Tracked archives use the tracker's temporary name instead.
func Create(dest string) (*Writer, error) {
	return CreateTracked(dest, nil)
}

// CreateTracked is Create with the partial container created by files, so a
// concurrent close either prevents it or sees it. Finish commits through
// files and entry temps are removed through it.
func CreateTracked(dest string, files Tracker) (*Writer, error) {
	var (
		f   *os.File
		err error
	)
	if files != nil {
		f, err = files.Create(dest)
	} else {
		f, err = os.Create(dest + PartSuffix)
	}
	if err != nil {
		return nil, err
	}
	return &Writer{dest: dest, part: f.Name(), file: f, zw: zip.NewWriter(f), files: files}, nil
}

// BeginEntry opens a new deflated entry. The previous entry must be ended.
func (w *Writer) BeginEntry(name string) (io.Writer, error) {
	if w.done {
		return nil, errors.New("archive: already finished")
	}
	if w.open != "" {
		return nil, fmt.Errorf("archive: entry %s is still open", w.open)
	}
	ew, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("archive: entry %s: %w", name, err)
	}
	w.open = name
	return ew, nil
}

// EndEntry closes the open entry.
func (w *Writer) EndEntry() error {
	if w.open == "" {
		return errors.New("archive: no open entry")
	}
	w.open = ""
	w.entries++
	return w.zw.Flush()
}

// AddEntry copies the temp file into a new entry named name, then deletes it.
func (w *Writer) AddEntry(name, temp string) error {
	src, err := os.Open(temp)
	if err != nil {
		return err
	}
	ew, err := w.BeginEntry(name)
	if err != nil {
		src.Close()
		return err
	}
	_, err = io.Copy(ew, src)
	src.Close()
	if err != nil {
		return fmt.Errorf("archive: copy %s: %w", name, err)
	}
	if err := w.EndEntry(); err != nil {
		return err
	}
	return w.remove(temp)
}

// Entries is the number of completed entries.
func (w *Writer) Entries() int { return w.entries }

// Finish writes the central directory and moves the archive to its final path.
func (w *Writer) Finish() (int64, error) {
	if w.done {
		return 0, errors.New("archive: already finished")
	}
	w.done = true
	if w.open != "" {
		w.abort()
		return 0, fmt.Errorf("archive: entry %s was not ended", w.open)
	}
	var size int64
	err := w.zw.Close()
	if err == nil {
		var st os.FileInfo
		if st, err = w.file.Stat(); err == nil {
			size = st.Size()
		}
	}
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		w.remove(w.part)
		return 0, err
	}
	if w.files != nil {
		err = w.files.Commit(w.part)
	} else {
		err = os.Rename(w.part, w.dest)
	}
	if err != nil {
		return 0, err
	}
	return size, nil
}

// Abort closes and deletes the partial container. Safe after Finish.
func (w *Writer) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	return w.abort()
}

func (w *Writer) abort() error {
	w.zw.Close()
	w.file.Close()
	return w.remove(w.part)
}

func (w *Writer) remove(p string) error {
	if w.files != nil {
		return w.files.Remove(p)
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
