package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"job-applier-go/internal/config"
	"job-applier-go/internal/constants"
	"job-applier-go/internal/tracing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound key 不存在
var ErrNotFound = redis.Nil

var redisTracer = otel.Tracer("job-applier/storage/redis")

// 按 key 前缀的 span 采样率，其余 key 走默认 5%
var redisKeySamplingRates = map[string]float64{
	constants.AppPrefix + ":" + constants.ProfileModulePrefix + ":":                             0.1,
	constants.AppPrefix + ":" + constants.SearchModulePrefix + ":" + constants.EntityLock + ":": 0.5,
	constants.AppPrefix + ":" + constants.SearchModulePrefix + ":":                              0.1,
	constants.AppPrefix + ":" + constants.ChatModulePrefix + ":":                                0.05,
	constants.AppPrefix + ":" + constants.MatchModulePrefix + ":":                               0.02,
}

const defaultRedisSampleRate = 0.05

var (
	rnd      = rand.New(rand.NewSource(time.Now().UnixNano()))
	rndMutex sync.Mutex
)

// shouldSampleRedisOp 按最长匹配前缀决定是否为这次操作创建 span
func shouldSampleRedisOp(key string) bool {
	if key == "" {
		return false
	}
	return randFloat() < sampleRateFor(key)
}

func sampleRateFor(key string) float64 {
	rate, best := defaultRedisSampleRate, 0
	for prefix, r := range redisKeySamplingRates {
		if len(prefix) > best && strings.HasPrefix(key, prefix) {
			rate, best = r, len(prefix)
		}
	}
	return rate
}

func randFloat() float64 {
	rndMutex.Lock()
	defer rndMutex.Unlock()
	return rnd.Float64()
}

// Redis 档案缓存、搜索缓存、锁和对话会话
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter 创建客户端、挂上 redisotel 并 ping 一次
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		MaxRetries:   cfg.MaxRetries,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{Client: client, config: cfg}, nil
}

// Close 关闭连接
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping 检查连接
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// ProfileCacheTTL 结构化档案缓存时长
func (r *Redis) ProfileCacheTTL() time.Duration {
	return config.GetDuration(r.config.ProfileCacheTTL, constants.ProfileCacheDuration)
}

// SearchCacheTTL 搜索结果缓存时长
func (r *Redis) SearchCacheTTL() time.Duration {
	return config.GetDuration(r.config.SearchCacheTTL, constants.SearchCacheDuration)
}

// SearchLockWait 等待其他请求写入同一搜索缓存的时长
func (r *Redis) SearchLockWait() time.Duration {
	return config.GetDuration(r.config.SearchLockWait, constants.SearchLockWaitDuration)
}

// ChatSessionTTL 对话历史保留时长
func (r *Redis) ChatSessionTTL() time.Duration {
	return config.GetDuration(r.config.ChatSessionTTL, constants.ChatSessionDuration)
}

func startRedisSpan(ctx context.Context, op, key string) (context.Context, trace.Span) {
	if !shouldSampleRedisOp(key) {
		return ctx, nil
	}
	ctx, span := redisTracer.Start(ctx, "Redis."+op, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.operation", strings.ToUpper(op)),
		attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
	)
	return ctx, span
}

// Get 读取字符串值，key 不存在时返回 ErrNotFound
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis客户端未初始化")
	}
	ctx, span := startRedisSpan(ctx, "Get", key)
	if span != nil {
		defer span.End()
	}

	val, err := r.Client.Get(ctx, key).Result()
	if span != nil {
		switch {
		case errors.Is(err, redis.Nil):
			span.SetAttributes(attribute.Bool("db.redis.key_exists", false))
			span.SetStatus(codes.Ok, "key not found")
		case err != nil:
			tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		default:
			span.SetAttributes(
				attribute.Bool("db.redis.key_exists", true),
				attribute.Int("db.redis.value_length", len(val)),
			)
		}
	}
	return val, err
}

// Set 写入字符串值
func (r *Redis) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	ctx, span := startRedisSpan(ctx, "Set", key)
	if span != nil {
		defer span.End()
		span.SetAttributes(
			attribute.Int("db.redis.value_length", len(value)),
			attribute.Int64("db.redis.expiration_ms", expiration.Milliseconds()),
		)
	}

	err := r.Client.Set(ctx, key, value, expiration).Err()
	if span != nil && err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
	}
	return err
}

// GetJSON 读取 JSON 值并解码到 dest，key 不存在时 found 为 false 且不返回错误
func (r *Redis) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	val, err := r.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, fmt.Errorf("解码缓存值 %s 失败: %w", key, err)
	}
	return true, nil
}

// SetJSON 编码 value 后写入
func (r *Redis) SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("编码缓存值失败: %w", err)
	}
	return r.Set(ctx, key, string(data), expiration)
}

// AcquireLock SetNX 方式获取锁，成功时返回持有者标识，被占用时返回空串
func (r *Redis) AcquireLock(ctx context.Context, lockKey string, expiration time.Duration) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis client is not initialized")
	}
	lockValue := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, lockKey, lockValue, expiration).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return lockValue, nil
}

var releaseLockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`)

// ReleaseLock 只有持有者才能释放锁
func (r *Redis) ReleaseLock(ctx context.Context, lockKey string, lockValue string) (bool, error) {
	if r.Client == nil {
		return false, fmt.Errorf("redis client is not initialized")
	}
	res, err := releaseLockScript.Run(ctx, r.Client, []string{lockKey}, lockValue).Int64()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}
