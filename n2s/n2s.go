// Package n2s is the need to send file. Observations that could not be sent
// are appended here and worked off later, oldest first, from a resume offset
// kept outside the file.
package n2s

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gr-butler/fullstation/env"
	"github.com/gr-butler/fullstation/health"
	"github.com/gr-butler/fullstation/radio"
	"github.com/gr-butler/fullstation/sdcard"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
)

var (
	ErrNoCard      = sdcard.ErrNoCard
	ErrLineTooLong = errors.New("n2s line too long")
)

// Sender sends one queued observation.
type Sender interface {
	Send(payload []byte) radio.Result
}

// OffsetStore keeps the position of the first unsent line.
type OffsetStore interface {
	Offset() int64
	SetOffset(off int64) error
}

type Queue struct {
	card    *sdcard.Card
	path    string
	maxSize int64
	offsets OffsetStore
	status  *health.Status
	clock   clockwork.Clock
}

func New(card *sdcard.Card, offsets OffsetStore, status *health.Status, clock clockwork.Clock) *Queue {
	return &Queue{
		card:    card,
		path:    card.Path(env.N2SFile),
		maxSize: env.N2SMaxFileSize,
		offsets: offsets,
		status:  status,
		clock:   clock,
	}
}

// Append adds line to the end of the file. A file that has grown past its cap
// is deleted first, the oldest backlog is given up rather than the newest.
func (q *Queue) Append(line string) error {
	if !q.card.Available() {
		return ErrNoCard
	}
	full, err := q.write(line)
	if err != nil {
		return err
	}
	if !full {
		return nil
	}
	logger.Warn("N2S:Full")
	if err := q.Delete(); err != nil {
		return fmt.Errorf("n2s full: %w", err)
	}
	if _, err := q.write(line); err != nil {
		return err
	}
	return nil
}

// write appends line unless the file is already over the cap.
func (q *Queue) write(line string) (bool, error) {
	q.card.Acquire()
	defer q.card.Release()

	f, err := os.OpenFile(q.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		q.status.Set(health.SD)
		logger.Errorf("N2S:Open Error [%v]", err)
		return false, fmt.Errorf("open n2s: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		q.status.Set(health.SD)
		return false, fmt.Errorf("stat n2s: %w", err)
	}
	if fi.Size() > q.maxSize {
		return true, nil
	}
	end, err := trimTornTail(f, fi.Size())
	if err != nil {
		q.status.Set(health.SD)
		logger.Errorf("N2S:Trim Error [%v]", err)
		return false, fmt.Errorf("trim n2s: %w", err)
	}
	if _, err := f.Seek(end, io.SeekStart); err != nil {
		q.status.Set(health.SD)
		return false, fmt.Errorf("seek n2s: %w", err)
	}
	if _, err := io.WriteString(f, line+sdcard.CRLF); err != nil {
		q.status.Set(health.SD)
		logger.Errorf("N2S:Write Error [%v]", err)
		return false, fmt.Errorf("write n2s: %w", err)
	}
	q.status.Clear(health.SD)
	q.status.Set(health.N2S)
	logger.Info("N2S:OBS Added")
	return false, nil
}

// trimTornTail cuts a partial last line, left by a write that never finished,
// back to the end of the last complete line. It returns the new size.
func trimTornTail(f *os.File, size int64) (int64, error) {
	if size == 0 {
		return 0, nil
	}
	buf := make([]byte, 512)
	end := size
	for end > 0 {
		n := int64(len(buf))
		if n > end {
			n = end
		}
		if _, err := f.ReadAt(buf[:n], end-n); err != nil {
			return 0, err
		}
		if i := bytes.LastIndexByte(buf[:n], '\n'); i >= 0 {
			end = end - n + int64(i) + 1
			break
		}
		end -= n
	}
	if end == size {
		return size, nil
	}
	logger.Warnf("N2S:Torn line dropped [%v] bytes", size-end)
	return end, f.Truncate(end)
}

// Delete removes the file and resets the resume offset. A missing file is not
// an error.
func (q *Queue) Delete() error {
	q.card.Acquire()
	err := os.Remove(q.path)
	q.card.Release()

	var result error
	switch {
	case err == nil:
		q.status.Clear(health.N2S)
		logger.Info("N2S->DEL:OK")
	case errors.Is(err, os.ErrNotExist):
		q.status.Clear(health.N2S)
		logger.Info("N2S->DEL:NF")
	default:
		q.status.Set(health.SD)
		logger.Errorf("N2S->DEL:ERR [%v]", err)
		result = fmt.Errorf("delete n2s: %w", err)
	}
	if err := q.offsets.SetOffset(0); err != nil {
		logger.Errorf("N2S:Offset reset failed [%v]", err)
	}
	return result
}

// Size of the file in bytes, 0 when there is none.
func (q *Queue) Size() int64 {
	if !q.card.Available() {
		return 0
	}
	q.card.Acquire()
	defer q.card.Release()
	fi, err := os.Stat(q.path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

// Drain sends queued lines from the resume offset until the file is worked
// off, a send fails, ctx is done or budget has passed. The deadline is checked
// before each line. It returns the number of lines sent.
func (q *Queue) Drain(ctx context.Context, budget time.Duration, sender Sender) int {
	logger.Info("OBS:N2S Publish")
	if !q.card.Available() {
		return 0
	}

	q.card.Acquire()
	f, err := os.Open(q.path)
	if err != nil {
		q.card.Release()
		if !errors.Is(err, os.ErrNotExist) {
			q.status.Set(health.SD)
			logger.Errorf("OBS:N2S->OPEN:ERR [%v]", err)
		}
		return 0
	}
	fi, err := f.Stat()
	q.card.Release()
	if err != nil {
		f.Close()
		logger.Errorf("OBS:N2S->STAT:ERR [%v]", err)
		return 0
	}

	size := fi.Size()
	logger.Infof("OBS:N2S:Exists [%v bytes]", size)
	if size <= env.N2SMinFileSize {
		f.Close()
		logger.Info("OBS:N2S:Empty")
		q.Delete()
		return 0
	}

	pos := q.offsets.Offset()
	if pos < 0 || pos > size {
		logger.Warnf("OBS:N2S offset [%v] past end [%v], starting over", pos, size)
		pos = 0
	}
	if pos > 0 {
		q.card.Acquire()
		_, err = f.Seek(pos, io.SeekStart)
		q.card.Release()
		if err != nil {
			f.Close()
			logger.Errorf("OBS:N2S->SEEK:ERR [%v]", err)
			return 0
		}
	}

	sent, pos, err := q.send(ctx, budget, sender, f, pos)
	f.Close()
	if errors.Is(err, ErrLineTooLong) {
		logger.Errorf("OBS:N2S[%d]->BOR:ERR", sent)
		q.Delete()
		return sent
	}
	if err != nil {
		q.status.Set(health.SD)
		logger.Errorf("OBS:N2S->READ:ERR [%v]", err)
	}

	if size-pos <= env.N2SMinFileSize {
		q.Delete()
		return sent
	}
	if err := q.offsets.SetOffset(pos); err != nil {
		logger.Errorf("OBS:N2S offset save failed [%v]", err)
	}
	return sent
}

// send works through the lines from pos. It returns the count sent and the
// offset of the first line not sent.
func (q *Queue) send(ctx context.Context, budget time.Duration, sender Sender, f *os.File, pos int64) (int, int64, error) {
	deadline := q.clock.Now().Add(budget)
	r := bufio.NewReaderSize(q.card.Reader(f), env.MaxLineSize+2)
	sent := 0
	for {
		if ctx.Err() != nil {
			logger.Info("OBS:N2S->CANCELLED")
			return sent, pos, nil
		}
		if !q.clock.Now().Before(deadline) {
			logger.Info("OBS:N2S->TIME2EXIT")
			return sent, pos, nil
		}

		line, n, err := readLine(r)
		if errors.Is(err, io.EOF) {
			return sent, pos, nil
		}
		if err != nil {
			return sent, pos, err
		}
		if len(line) == 0 {
			pos += int64(n)
			continue
		}

		if res := sender.Send(line); res != radio.Sent {
			logger.Warnf("OBS:N2S[%d]->PUB:ERR [%v]", sent, res)
			return sent, pos, nil
		}
		logger.Infof("OBS:N2S[%d]->PUB:OK", sent)
		sent++
		pos += int64(n)
		if err := q.offsets.SetOffset(pos); err != nil {
			logger.Errorf("OBS:N2S offset save failed [%v]", err)
		}
	}
}

// readLine returns the next LF terminated line without its CR/LF, and the
// number of bytes it took up in the file. An unterminated tail is left for a
// later read and reported as io.EOF.
func readLine(r *bufio.Reader) ([]byte, int, error) {
	raw, err := r.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		return nil, 0, ErrLineTooLong
	}
	if err != nil {
		return nil, 0, err
	}
	line := bytes.TrimRight(raw, "\r\n")
	if len(line) > env.MaxLineSize {
		return nil, 0, ErrLineTooLong
	}
	// the reader's buffer is reused on the next read
	return append([]byte(nil), line...), len(raw), nil
}
