package fileinfo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"filecrypt/internal/core/domain"
)

const timeLayout = "2006-01-02 15:04:05"

var fileTypes = map[string]string{
	".txt":  "Text File",
	".pdf":  "PDF Document",
	".jpg":  "JPEG Image",
	".jpeg": "JPEG Image",
	".png":  "PNG Image",
	".doc":  "Word Document",
	".docx": "Word Document",
	".xls":  "Excel Spreadsheet",
	".xlsx": "Excel Spreadsheet",
	".zip":  "Zip Archive",
	".json": "JSON File",
	".xml":  "XML File",
	".go":   "Go Source",
}

// Info describes a single file for display.
type Info struct {
	Name     string
	Path     string // absolute
	Size     int64
	Type     string
	Mode     fs.FileMode
	Modified time.Time
	Readable bool
	Writable bool
}

// HumanSize renders Size like "1.5 MB (1500000 bytes)".
func (i Info) HumanSize() string {
	return fmt.Sprintf("%s (%s bytes)", humanize.Bytes(uint64(i.Size)), humanize.Comma(i.Size))
}

// Permissions returns the octal permission bits, e.g. "644".
func (i Info) Permissions() string {
	return fmt.Sprintf("%03o", i.Mode.Perm())
}

func (i Info) ModifiedString() string {
	return i.Modified.Local().Format(timeLayout)
}

// Age renders the modification time relative to now.
func (i Info) Age() string {
	return humanize.Time(i.Modified)
}

// TypeOf classifies a file by its extension, case-insensitively.
func TypeOf(path string) string {
	if strings.HasSuffix(path, domain.EncryptedSuffix) {
		return "Encrypted File"
	}
	if t, ok := fileTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return "Unknown File Type"
}

// Stat collects Info for path. Directories are rejected.
func Stat(path string) (Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if st.IsDir() {
		return Info{}, fmt.Errorf("failed to stat file: %s is a directory", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return Info{
		Name:     st.Name(),
		Path:     abs,
		Size:     st.Size(),
		Type:     TypeOf(path),
		Mode:     st.Mode(),
		Modified: st.ModTime(),
		Readable: canOpen(path, os.O_RDONLY),
		Writable: canOpen(path, os.O_WRONLY),
	}, nil
}

func canOpen(path string, flag int) bool {
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// ListFiles returns the regular files directly inside dir, sorted by name.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// TotalSize sums the sizes of paths, skipping any that cannot be stat'ed.
func TotalSize(paths []string) string {
	var total uint64
	for _, p := range paths {
		if st, err := os.Stat(p); err == nil {
			total += uint64(st.Size())
		}
	}
	return humanize.Bytes(total)
}
