package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var errNoScriptedDial = errors.New("no scripted dial left")

type dialCall struct {
	url    string
	header http.Header
}

type dialResult struct {
	socket *fakeSocket
	err    error
}

// fakeDialer hands out scripted sockets in order and records every dial.
type fakeDialer struct {
	results []dialResult
	calls   []dialCall
}

func newFakeDialer(results ...dialResult) *fakeDialer {
	return &fakeDialer{results: results}
}

func (d *fakeDialer) Dial(_ context.Context, url string, header http.Header) (Socket, error) {
	d.calls = append(d.calls, dialCall{url: url, header: header.Clone()})
	if len(d.results) == 0 {
		return nil, errNoScriptedDial
	}
	r := d.results[0]
	d.results = d.results[1:]
	if r.err != nil {
		return nil, r.err
	}
	return r.socket, nil
}

// fakeSocket replays scripted reads and write outcomes.
type fakeSocket struct {
	id string

	setBlockingErr error
	blockingCalls  []bool
	blocking       bool

	writeErrs []error
	written   [][]byte

	reads []readResult

	closeErr   error
	closeCalls int

	releaseCalls int
}

func newFakeSocket(id string) *fakeSocket {
	return &fakeSocket{id: id}
}

func (s *fakeSocket) withWriteErrs(errs ...error) *fakeSocket {
	s.writeErrs = append(s.writeErrs, errs...)
	return s
}

func (s *fakeSocket) withFrames(frames ...Frame) *fakeSocket {
	for _, f := range frames {
		s.reads = append(s.reads, readResult{frame: f})
	}
	return s
}

func (s *fakeSocket) withReadErr(err error) *fakeSocket {
	s.reads = append(s.reads, readResult{err: err})
	return s
}

func (s *fakeSocket) ID() string {
	return s.id
}

func (s *fakeSocket) SetBlocking(blocking bool) error {
	s.blockingCalls = append(s.blockingCalls, blocking)
	if s.setBlockingErr != nil {
		return s.setBlockingErr
	}
	s.blocking = blocking
	return nil
}

func (s *fakeSocket) WriteText(payload []byte) error {
	if s.releaseCalls > 0 {
		return ErrAlreadyClosed
	}
	var err error
	if len(s.writeErrs) > 0 {
		err = s.writeErrs[0]
		s.writeErrs = s.writeErrs[1:]
	}
	if err != nil {
		return err
	}
	s.written = append(s.written, append([]byte(nil), payload...))
	return nil
}

func (s *fakeSocket) ReadFrame(ctx context.Context) (Frame, error) {
	if len(s.reads) == 0 {
		if !s.blocking {
			return Frame{}, ErrWouldBlock
		}
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}
		return Frame{}, ErrAlreadyClosed
	}
	r := s.reads[0]
	s.reads = s.reads[1:]
	return r.frame, r.err
}

func (s *fakeSocket) Close() error {
	s.closeCalls++
	return s.closeErr
}

func (s *fakeSocket) Release() error {
	s.releaseCalls++
	return nil
}

func (s *fakeSocket) writtenStrings() []string {
	out := make([]string, len(s.written))
	for i, p := range s.written {
		out[i] = string(p)
	}
	return out
}

func (s *fakeSocket) String() string {
	return fmt.Sprintf("fakeSocket(%s)", s.id)
}
