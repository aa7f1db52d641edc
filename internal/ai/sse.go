package ai

import (
	"bufio"
	"bytes"
	"io"
	"sync"
)

const maxEventSize = 1 << 20

// decodeFunc разбирает полезную нагрузку одного события data:.
// final=true означает, что модель завершила ответ.
type decodeFunc func(data []byte) (text string, final bool, err error)

// sseStream reads server-sent events from a streaming model response.
type sseStream struct {
	op       string
	body     io.ReadCloser
	scanner  *bufio.Scanner
	decode   decodeFunc
	finished bool
	err      error
	once     sync.Once
}

func newSSEStream(op string, body io.ReadCloser, decode decodeFunc) *sseStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	return &sseStream{
		op:      op,
		body:    body,
		scanner: scanner,
		decode:  decode,
	}
}

// Recv возвращает следующий непустой фрагмент текста.
func (s *sseStream) Recv() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.finished {
		return "", io.EOF
	}

	for s.scanner.Scan() {
		line := bytes.TrimRight(s.scanner.Bytes(), "\r")
		if !bytes.HasPrefix(line, []byte("data:")) {
			continue
		}

		data := bytes.TrimSpace(bytes.TrimPrefix(line, []byte("data:")))
		if len(data) == 0 {
			continue
		}

		text, final, err := s.decode(data)
		if err != nil {
			s.err = upstream(s.op, err)
			return "", s.err
		}
		if final {
			s.finished = true
		}
		if text != "" {
			return text, nil
		}
		if s.finished {
			return "", io.EOF
		}
	}

	if err := s.scanner.Err(); err != nil {
		s.err = upstream(s.op, err)
		return "", s.err
	}

	// Тело закончилось без финального события: ответ оборван.
	s.err = upstream(s.op, io.ErrUnexpectedEOF)
	return "", s.err
}

func (s *sseStream) Close() error {
	var err error
	s.once.Do(func() {
		err = s.body.Close()
	})
	return err
}
