package archive

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
)

// TokenStore persists the change stream resume token between restarts
type TokenStore interface {
	// Save persists the resume token
	Save(ctx context.Context, token bson.Raw) error

	// Load retrieves the last saved resume token. Returns nil if no token
	// has been saved yet.
	Load(ctx context.Context) (bson.Raw, error)
}

// TokenConfig selects and configures the token backend. A non-empty
// RedisAddr picks redis; otherwise the token lives in a local file.
type TokenConfig struct {
	RedisAddr string
	RedisKey  string
	FilePath  string
}

// NewTokenStore builds the configured TokenStore
func NewTokenStore(cfg TokenConfig) (TokenStore, error) {
	if cfg.RedisAddr != "" {
		if cfg.RedisKey == "" {
			return nil, errors.New("redis token store requires a key")
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return NewRedisTokenStore(client, cfg.RedisKey), nil
	}
	if cfg.FilePath == "" {
		return nil, errors.New("token store requires a redis address or a file path")
	}
	return NewFileTokenStore(cfg.FilePath), nil
}

// FileTokenStore keeps the token in a single local file. The write is not
// atomic; a torn token makes the tailer restart from the current oplog
// position, which the per-day upsert absorbs.
type FileTokenStore struct {
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Save(ctx context.Context, token bson.Raw) error {
	if err := os.WriteFile(s.path, token, 0644); err != nil {
		return fmt.Errorf("write resume token: %w", err)
	}
	return nil
}

func (s *FileTokenStore) Load(ctx context.Context) (bson.Raw, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read resume token: %w", err)
	}
	return bson.Raw(data), nil
}

// RedisTokenStore keeps the token under a single redis key, for
// deployments where the archiver has no stable disk
type RedisTokenStore struct {
	client *redis.Client
	key    string
}

func NewRedisTokenStore(client *redis.Client, key string) *RedisTokenStore {
	return &RedisTokenStore{
		client: client,
		key:    key,
	}
}

func (s *RedisTokenStore) Save(ctx context.Context, token bson.Raw) error {
	if err := s.client.Set(ctx, s.key, []byte(token), 0).Err(); err != nil {
		return fmt.Errorf("write resume token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Load(ctx context.Context) (bson.Raw, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read resume token: %w", err)
	}
	return bson.Raw(data), nil
}
