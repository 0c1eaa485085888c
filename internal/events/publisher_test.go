package events

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorderIsConcurrencySafe(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			_ = r.Publish(context.Background(), SubjectRequestApproved, RequestEvent{RequestID: id})
		}(uint64(i))
	}
	wg.Wait()

	assert.Len(t, r.Events(SubjectRequestApproved), 20)
	assert.Empty(t, r.Events(SubjectRequestRejected))
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), SubjectRequestCreated, RequestEvent{}))
}
