package media

import "context"

type readResult struct {
	frame Frame
	err   error
}

// BlockingReader runs a read that cannot be interrupted on its own goroutine
// so Read returns as soon as ctx is done. At most one read is in flight. A
// read abandoned by ctx is handed to the next Read.
type BlockingReader struct {
	read    func() (Frame, error)
	pending chan readResult
}

func NewBlockingReader(read func() (Frame, error)) *BlockingReader {
	return &BlockingReader{read: read}
}

func (r *BlockingReader) Read(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if r.pending == nil {
		pending := make(chan readResult, 1)
		r.pending = pending
		go func() {
			frame, err := r.read()
			pending <- readResult{frame: frame, err: err}
		}()
	}

	select {
	case res := <-r.pending:
		r.pending = nil
		return res.frame, res.err
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// Release calls release once no read is in flight. When a read was abandoned
// it returns nil at once and release runs after that read comes back.
func (r *BlockingReader) Release(release func() error) error {
	pending := r.pending
	r.pending = nil
	if pending == nil {
		return release()
	}
	go func() {
		<-pending
		_ = release()
	}()
	return nil
}
