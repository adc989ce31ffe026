// Package restyutil writes every HTTP exchange made by a resty client to a
// directory so a failing comparison can be inspected afterwards.
package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type Dumper struct {
	directory string
	counter   *uint64
}

// NewDumper creates the directory if it does not exist. Existing files are
// kept, names written by a Dumper are unique per process.
func NewDumper(dir string) (Dumper, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Dumper{}, err
	}
	err = os.MkdirAll(abs, 0777)
	if err != nil {
		return Dumper{}, err
	}
	var counter uint64
	return Dumper{directory: abs, counter: &counter}, nil
}

func (d Dumper) Dir() string {
	return d.directory
}

// Write stores contents under a name derived from label and returns the
// file path.
func (d Dumper) Write(label, contents string) (string, error) {
	n := atomic.AddUint64(d.counter, 1)
	name := fmt.Sprintf("%04d-%s.txt", n, sanitize(label))
	path := filepath.Join(d.directory, name)
	err := os.WriteFile(path, []byte(contents), 0600)
	return path, err
}

// Attach dumps each response the client receives, label names the side of
// the comparison the client belongs to.
func (d Dumper) Attach(client *resty.Client, label string) {
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		tag := fmt.Sprintf("%s-%s-%d", label, res.Request.Method, res.StatusCode())
		_, err := d.Write(tag, FormatExchange(res))
		if err != nil {
			slog.Warn("failed to write http dump", "label", tag, "err", err)
		}
		return nil
	})
}

func sanitize(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, label)
}
