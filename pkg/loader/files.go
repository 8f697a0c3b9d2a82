package loader

import (
	"bytes"
	"io"
	"io/fs"
	"sort"
	"time"

	"github.com/odvcencio/folio/pkg/object"
)

type fileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (fi fileInfo) Name() string       { return fi.name }
func (fi fileInfo) Size() int64        { return fi.size }
func (fi fileInfo) Mode() fs.FileMode  { return fi.mode }
func (fi fileInfo) ModTime() time.Time { return fi.modTime }
func (fi fileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi fileInfo) Sys() any           { return nil }

func modeOf(e object.TreeEntry) fs.FileMode {
	switch {
	case e.IsDir():
		return fs.ModeDir | 0o555
	case e.Mode == object.TreeModeExecutable:
		return 0o555
	default:
		return 0o444
	}
}

// modTime is the commit time of the view, the zero time when it has no
// head.
func (l *Loader) modTime() time.Time {
	c := l.git.HeadCommit()
	if c == nil {
		return time.Time{}
	}
	return time.Unix(c.Committer.When, 0).UTC()
}

// blobFile is an open blob. Reads, seeks and ReadAt share one bytes.Reader.
type blobFile struct {
	info fileInfo
	*bytes.Reader
}

func newBlobFile(info fileInfo, data []byte) *blobFile {
	return &blobFile{info: info, Reader: bytes.NewReader(data)}
}

func (f *blobFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *blobFile) Close() error               { return nil }

type dirEntry struct {
	info fileInfo
}

func (d dirEntry) Name() string               { return d.info.name }
func (d dirEntry) IsDir() bool                { return d.info.IsDir() }
func (d dirEntry) Type() fs.FileMode          { return d.info.mode.Type() }
func (d dirEntry) Info() (fs.FileInfo, error) { return d.info, nil }

// dirFile is an open tree.
type dirFile struct {
	info    fileInfo
	entries []fs.DirEntry
	offset  int
}

func (d *dirFile) Stat() (fs.FileInfo, error) { return d.info, nil }
func (d *dirFile) Close() error               { return nil }

func (d *dirFile) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.info.name, Err: fs.ErrInvalid}
}

// ReadDir implements fs.ReadDirFile.
func (d *dirFile) ReadDir(n int) ([]fs.DirEntry, error) {
	rest := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return append([]fs.DirEntry(nil), rest...), nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(rest))
	d.offset += n
	return append([]fs.DirEntry(nil), rest[:n]...), nil
}

// dirEntries lists the tree at p ("" is the root) sorted by name. Blob
// sizes are read eagerly so Info never fails.
func (l *Loader) dirEntries(p string) ([]fs.DirEntry, error) {
	tree, err := l.git.ReadDir(p)
	if err != nil {
		return nil, err
	}
	modTime := l.modTime()
	objects := l.git.Repository().Objects
	entries := make([]fs.DirEntry, 0, len(tree))
	for _, e := range tree {
		info := fileInfo{name: e.Name, mode: modeOf(e), modTime: modTime}
		if !e.IsDir() {
			blob, err := objects.ReadBlob(e.Hash)
			if err != nil {
				return nil, err
			}
			info.size = int64(len(blob.Data))
		}
		entries = append(entries, dirEntry{info: info})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}
