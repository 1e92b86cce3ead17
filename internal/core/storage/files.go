// Package storage 上传文件落盘：每个用户每个类别只保留一份
package storage

import (
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

type Category string

const (
	CategoryPhoto  Category = "photo"
	CategoryResume Category = "resume"
	CategoryLogo   Category = "logo"
)

var allowedExt = map[Category]map[string]struct{}{
	CategoryPhoto:  {".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}},
	CategoryResume: {".pdf": {}, ".doc": {}, ".docx": {}},
	CategoryLogo:   {".jpg": {}, ".jpeg": {}, ".png": {}, ".svg": {}, ".webp": {}},
}

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
)

type FileStore struct {
	fs        afero.Fs
	root      string
	urlPrefix string
	maxBytes  int64
}

func NewFileStore(fs afero.Fs, root, urlPrefix string, maxBytes int64) *FileStore {
	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}
	return &FileStore{fs: fs, root: root, urlPrefix: strings.TrimRight(urlPrefix, "/"), maxBytes: maxBytes}
}

// Fs 供路由挂载静态目录
func (s *FileStore) Fs() afero.Fs { return afero.NewBasePathFs(s.fs, s.root) }

func (s *FileStore) URLPrefix() string { return s.urlPrefix }

// Save 写入 {root}/{category}s/{category}_{owner}{ext}，返回对外路径
func (s *FileStore) Save(r io.Reader, cat Category, owner, originalName string) (string, error) {
	exts, ok := allowedExt[cat]
	if !ok {
		return "", fmt.Errorf("%w: category %q", ErrUnsupportedType, cat)
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := exts[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	if owner == "" || strings.ContainsAny(owner, `/\.`) {
		return "", fmt.Errorf("storage: invalid owner key %q", owner)
	}

	dir := filepath.Join(s.root, string(cat)+"s")
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	base := string(cat) + "_" + owner

	// 先写临时文件，成功后再替换，避免半截文件
	tmp := filepath.Join(dir, base+ext+".part")
	f, err := s.fs.Create(tmp)
	if err != nil {
		return "", err
	}
	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxBytes > 0 && n > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = s.fs.Remove(tmp)
		return "", err
	}

	// 换了扩展名的旧文件一并清掉
	if olds, _ := afero.Glob(s.fs, filepath.Join(dir, base+".*")); len(olds) > 0 {
		for _, o := range olds {
			if o != tmp {
				_ = s.fs.Remove(o)
			}
		}
	}
	final := filepath.Join(dir, base+ext)
	if err := s.fs.Rename(tmp, final); err != nil {
		return "", err
	}
	return path.Join(s.urlPrefix, string(cat)+"s", base+ext), nil
}
