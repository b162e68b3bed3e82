package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/agentic-rag/internal/core/error"
	logx "github.com/Chative-core-poc-v1/agentic-rag/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Hash fields of a session snapshot. Each field is an independent JSON value.
const (
	fieldAgents  = "agents"
	fieldLogs    = "logs"
	fieldHistory = "history"
	fieldChunks  = "chunks"
	fieldPhase   = "phase"
	fieldPending = "pending"
)

type RedisSessionStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisSessionStore(rdb redis.Cmdable, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:state", sessionID)
}

func (r *RedisSessionStore) Save(ctx context.Context, sessionID string, state *model.SessionState) error {
	fields, err := encodeState(state)
	if err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to marshal session state")
		return err
	}
	key := r.sessionKey(sessionID)

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		// extend TTL on every save
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save session state to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionStore) Load(ctx context.Context, sessionID string) (*model.SessionState, error) {
	key := r.sessionKey(sessionID)

	fields, err := r.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to load session state from redis")
		return nil, errx.WrapRedis(err)
	}
	if len(fields) == 0 {
		return nil, model.ErrSessionNotFound
	}

	state, err := decodeState(fields)
	if err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to unmarshal session state")
		return nil, err
	}
	return state, nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	key := r.sessionKey(sessionID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete session state from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func encodeState(state *model.SessionState) (map[string]any, error) {
	if state == nil {
		state = &model.SessionState{}
	}
	values := map[string]any{
		fieldAgents:  state.Agents,
		fieldLogs:    state.Logs,
		fieldHistory: state.History,
		fieldChunks:  state.Chunks,
		fieldPhase:   state.Phase,
		fieldPending: state.Pending,
	}
	fields := make(map[string]any, len(values))
	for name, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", name, err)
		}
		fields[name] = string(b)
	}
	return fields, nil
}

func decodeState(fields map[string]string) (*model.SessionState, error) {
	state := &model.SessionState{}
	targets := map[string]any{
		fieldAgents:  &state.Agents,
		fieldLogs:    &state.Logs,
		fieldHistory: &state.History,
		fieldChunks:  &state.Chunks,
		fieldPhase:   &state.Phase,
		fieldPending: &state.Pending,
	}
	for name, dst := range targets {
		raw, ok := fields[name]
		if !ok || raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", name, err)
		}
	}
	return state, nil
}

var _ model.SessionStore = (*RedisSessionStore)(nil)
