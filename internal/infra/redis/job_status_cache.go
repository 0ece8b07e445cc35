package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ai-coach-chat/internal/domain"
	"ai-coach-chat/internal/domain/model"
	"ai-coach-chat/internal/domain/ports/repository"
)

var _ repository.ChatJobStatusCache = (*JobStatusCache)(nil)

// JobStatusCache stores terminal job views. Entries are never invalidated;
// a terminal view cannot change.
type JobStatusCache struct {
	client *Client
	ttl    time.Duration
}

func NewJobStatusCache(client *Client, ttl time.Duration) *JobStatusCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JobStatusCache{client: client, ttl: ttl}
}

type cachedJobStatus struct {
	ConversationID     string  `json:"conversation_id"`
	JobID              string  `json:"job_id"`
	AssistantMessageID string  `json:"assistant_message_id"`
	JobStatus          string  `json:"job_status"`
	AssistantStatus    string  `json:"assistant_status"`
	Content            *string `json:"content,omitempty"`
	JobError           *string `json:"job_error,omitempty"`
	AssistantError     *string `json:"assistant_error,omitempty"`
}

func JobStatusKey(userID, jobID string) string {
	return fmt.Sprintf("chat_job_status:%s:%s", userID, jobID)
}

// Get returns domain.ErrNotFound on a miss.
func (c *JobStatusCache) Get(ctx context.Context, userID, jobID string) (*model.ChatJobStatusView, error) {
	data, err := c.client.Get(ctx, JobStatusKey(userID, jobID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return decodeJobStatus([]byte(data))
}

func (c *JobStatusCache) Set(ctx context.Context, userID string, v *model.ChatJobStatusView) error {
	if v == nil || !v.JobStatus.IsTerminal() {
		return nil
	}
	data, err := encodeJobStatus(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, JobStatusKey(userID, v.JobID), data, c.ttl)
}

func encodeJobStatus(v *model.ChatJobStatusView) ([]byte, error) {
	return json.Marshal(cachedJobStatus{
		ConversationID:     v.ConversationID,
		JobID:              v.JobID,
		AssistantMessageID: v.AssistantMessageID,
		JobStatus:          string(v.JobStatus),
		AssistantStatus:    string(v.AssistantStatus),
		Content:            v.Content,
		JobError:           v.JobError,
		AssistantError:     v.AssistantError,
	})
}

func decodeJobStatus(data []byte) (*model.ChatJobStatusView, error) {
	var c cachedJobStatus
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode cached job status: %w", err)
	}
	return &model.ChatJobStatusView{
		ConversationID:     c.ConversationID,
		JobID:              c.JobID,
		AssistantMessageID: c.AssistantMessageID,
		JobStatus:          model.ChatJobStatus(c.JobStatus),
		AssistantStatus:    model.ChatMessageStatus(c.AssistantStatus),
		Content:            c.Content,
		JobError:           c.JobError,
		AssistantError:     c.AssistantError,
	}, nil
}
