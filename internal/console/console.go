// Package console drives the viewer from a raw-mode terminal.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/local/pageviewer/internal/viewer"
)

const keyQuit = "quit"

// Console reads keys from a terminal and applies them to the viewer.
type Console struct {
	in   *os.File
	out  io.Writer
	loop *viewer.Loop
}

func New(in *os.File, out io.Writer, loop *viewer.Loop) *Console {
	return &Console{in: in, out: out, loop: loop}
}

// Run puts the terminal in raw mode and handles keys until q, Ctrl-C, EOF or
// ctx is done.
func (c *Console) Run(ctx context.Context) error {
	fd := int(c.in.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("console: stdin is not a terminal")
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("console: raw mode: %w", err)
	}
	defer term.Restore(fd, old)

	fmt.Fprint(c.out, "←/→ page, +/= zoom in, - zoom out, q quit\r\n")
	return c.serve(ctx, c.in)
}

func (c *Console) serve(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 64)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		n, err := r.Read(buf)
		for _, key := range ParseKeys(buf[:n]) {
			if key == keyQuit {
				return nil
			}
			c.press(ctx, key)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (c *Console) press(ctx context.Context, key string) {
	var (
		st       viewer.Status
		bound    bool
		pressErr error
	)
	err := c.loop.Do(ctx, func(lctx context.Context, v *viewer.Viewer) {
		bound, pressErr = v.PressKey(lctx, key)
		st = v.Status()
	})
	if err != nil || !bound {
		return
	}
	if pressErr != nil {
		log.Debug().Err(pressErr).Str("key", key).Msg("key action failed")
		fmt.Fprintf(c.out, "\r%v\x1b[K\r\n", pressErr)
	}
	fmt.Fprintf(c.out, "\r%s  zoom %.2f\x1b[K", st.Label, st.Zoom)
}

// ParseKeys splits raw terminal input into key names understood by
// viewer.KeyMap. Unknown bytes are dropped.
func ParseKeys(b []byte) []string {
	var keys []string
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case 0x1b:
			if i+2 < len(b) && b[i+1] == '[' {
				switch b[i+2] {
				case 'C':
					keys = append(keys, viewer.KeyRight)
				case 'D':
					keys = append(keys, viewer.KeyLeft)
				}
				i += 2
			}
		case '+':
			keys = append(keys, viewer.KeyPlus)
		case '=':
			keys = append(keys, viewer.KeyEqual)
		case '-':
			keys = append(keys, viewer.KeyMinus)
		case 'q', 'Q', 0x03:
			keys = append(keys, keyQuit)
		}
	}
	return keys
}
