package workerpool

import (
	"context"
	"fmt"
	"sync"
)

// Batch submits every job and blocks until all of them have run. The
// returned slice holds each job's error at its input index. Jobs that could
// not be submitted carry the submit error.
func (p *Pool) Batch(ctx context.Context, jobs []Job) []error {
	errs := make([]error, len(jobs))
	var wg sync.WaitGroup

	for i, job := range jobs {
		wg.Add(1)
		wrapped := Job{
			Key: job.Key,
			Handler: func(ctx context.Context) (err error) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						errs[i] = errPanic{value: r}
						panic(r)
					}
				}()
				errs[i] = job.Handler(ctx)
				return errs[i]
			},
		}
		if err := p.Submit(ctx, wrapped); err != nil {
			errs[i] = err
			wg.Done()
		}
	}

	wg.Wait()
	return errs
}

type errPanic struct {
	value any
}

func (e errPanic) Error() string {
	return fmt.Sprintf("job panicked: %v", e.value)
}
