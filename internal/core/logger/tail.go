package logger

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
)

const tailChunk = 8 << 10

// Tail 读取日志文件末尾 n 行，最新的在前；文件不存在返回空
func Tail(fs afero.Fs, path string, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	f, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	// 从尾部按块回读，直到凑够 n+1 个换行
	var buf []byte
	off := st.Size()
	for off > 0 && bytes.Count(buf, []byte{'\n'}) <= n {
		size := int64(tailChunk)
		if off < size {
			size = off
		}
		off -= size
		chunk := make([]byte, size)
		if _, err := f.ReadAt(chunk, off); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		buf = append(chunk, buf...)
	}

	lines := strings.Split(strings.TrimRight(string(buf), "\r\n"), "\n")
	if off > 0 && len(lines) > 0 {
		lines = lines[1:] // 首行可能不完整
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	out := make([]string, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimRight(lines[i], "\r"); l != "" {
			out = append(out, l)
		}
	}
	return out, nil
}
