package agent

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-applier-go/internal/types"
	llm "job-applier-go/pkg/agent"
)

func TestBlendMatchScore(t *testing.T) {
	assert.Equal(t, 0.5, BlendMatchScore(0.5, 0.5, 0.5))
	assert.Equal(t, 1.0, BlendMatchScore(1, 1, 1))
	assert.Equal(t, 0.0, BlendMatchScore(0, 0, 0))
	assert.InDelta(t, 0.4, BlendMatchScore(0, 0, 1), 1e-9)
	assert.InDelta(t, 0.3, BlendMatchScore(1, -2, 0), 1e-9)
	assert.InDelta(t, 0.3, BlendMatchScore(0, 7, 0), 1e-9)
}

func TestBlendMatchScoreWeightsExactly(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10000; i++ {
		k, s, m := rng.Float64(), rng.Float64(), rng.Float64()
		want := 0.3*k + 0.3*s + 0.4*m
		require.Equal(t, want, BlendMatchScore(k, s, m), "k=%v s=%v m=%v", k, s, m)
	}

	cases := [][3]float64{
		{0.7, 0.2, 0.9},
		{0.1, 0.1, 0.1},
		{0.33, 0.66, 0.99},
		{0.8, 0.45, 0.72},
	}
	for _, c := range cases {
		assert.Equal(t, 0.3*c[0]+0.3*c[1]+0.4*c[2], BlendMatchScore(c[0], c[1], c[2]))
	}
}

func TestKeywordOverlap(t *testing.T) {
	jd := "We need Go, Kubernetes and PostgreSQL experience."
	assert.InDelta(t, 2.0/3.0, KeywordOverlap("Go developer using Kubernetes and postgres", jd), 1e-9)
	assert.Equal(t, 1.0, KeywordOverlap("go kubernetes postgresql", jd))
	assert.Equal(t, 0.0, KeywordOverlap("anything", "the and for"))
}

type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float64
	calls   int
	err     error
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = f.vectors[t]
	}
	return out, nil
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *mapCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (c *mapCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

const (
	matchResume = "Go engineer with Kubernetes"
	matchJD     = "Looking for a Go engineer who knows Kubernetes and Terraform"
)

func TestMatcherBlendsScores(t *testing.T) {
	model := llm.NewMockChatClient("```json\n"+`{"ats_score": 82, "match_score": 0.8, "strengths": ["Go"], "gaps": ["Terraform"],
		"keywords_to_add": ["Terraform"], "recommended_bullets": ["Automated infra"]}`+"\n```", nil)
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		matchResume: {1, 0},
		matchJD:     {1, 0},
	}}
	m := NewMatcher(model, WithEmbedder(embedder, "test-embed"))

	res, err := m.Score(context.Background(), MatchRequest{ResumeText: matchResume, JobDescription: matchJD})
	require.NoError(t, err)

	keyword := KeywordOverlap(matchResume, matchJD)
	assert.Equal(t, keyword, res.KeywordScore)
	assert.Equal(t, 1.0, res.SemanticScore)
	assert.Equal(t, 0.8, res.ModelScore)
	assert.InDelta(t, 0.3*keyword+0.3*1.0+0.4*0.8, res.MatchScore, 1e-9)
	assert.Equal(t, 82.0, res.ATSScore)
	assert.Equal(t, []string{"Terraform"}, res.Gaps)

	require.Equal(t, 1, model.CallCount())
	prompt := llm.LastUserContent(model.Calls[0])
	assert.Contains(t, prompt, "RESUME:\n"+matchResume)
	assert.Contains(t, prompt, "USER PROFILE:\n"+NoProfileContext)
}

func TestMatcherPercentModelScore(t *testing.T) {
	model := llm.NewMockChatClient(`{"match_score": 60}`, nil)
	m := NewMatcher(model, WithSemanticFallback(0))

	res, err := m.Score(context.Background(), MatchRequest{ResumeText: "x", JobDescription: "y"})
	require.NoError(t, err)
	assert.Equal(t, 0.6, res.ModelScore)
	assert.Equal(t, []string{}, res.Strengths)
	assert.Equal(t, math.Round(res.MatchScore*100), res.ATSScore)
}

func TestMatcherFallsBackToDefault(t *testing.T) {
	for name, model := range map[string]*llm.MockChatClient{
		"unparseable": llm.NewMockChatClient("I think it is a good match!", nil),
		"no score":    llm.NewMockChatClient(`{"strengths": ["a"]}`, nil),
		"call error":  llm.NewMockChatClient("", errors.New("rate limited")),
	} {
		t.Run(name, func(t *testing.T) {
			res, err := NewMatcher(model).Score(context.Background(), MatchRequest{ResumeText: "cv", JobDescription: "jd"})
			require.NoError(t, err)
			assert.Equal(t, types.DefaultMatchResult(), *res)
		})
	}
}

func TestMatcherValidation(t *testing.T) {
	m := NewMatcher(llm.NewMockChatClient("{}", nil), WithMinJobDescriptionLength(20))

	_, err := m.Score(context.Background(), MatchRequest{JobDescription: "a long enough job description"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Resume text is required", vErr.Detail)

	_, err = m.Score(context.Background(), MatchRequest{ResumeText: "cv", JobDescription: "  "})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Job description is required", vErr.Detail)

	_, err = m.Score(context.Background(), MatchRequest{ResumeText: "cv", JobDescription: "too short"})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Job description must be at least 20 characters", vErr.Detail)
}

func TestMatcherEmbeddingCache(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		matchResume: {1, 0},
		matchJD:     {0.6, 0.8},
	}}
	cache := &mapCache{data: map[string][]byte{}}
	m := NewMatcher(llm.NewMockChatClient(`{"match_score": 0.5}`, nil),
		WithEmbedder(embedder, "test-embed"), WithEmbeddingCache(cache, time.Hour))

	for i := 0; i < 2; i++ {
		res, err := m.Score(context.Background(), MatchRequest{ResumeText: matchResume, JobDescription: matchJD})
		require.NoError(t, err)
		assert.InDelta(t, 0.6, res.SemanticScore, 1e-9)
	}
	assert.Equal(t, 1, embedder.calls)
	assert.Len(t, cache.data, 2)
	assert.Contains(t, cache.data, m.embeddingKey(matchJD))
}

func TestMatcherEmbeddingFailureUsesFallback(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("quota")}
	m := NewMatcher(llm.NewMockChatClient(`{"match_score": 1}`, nil),
		WithEmbedder(embedder, "e"), WithSemanticFallback(0.25))

	res, err := m.Score(context.Background(), MatchRequest{ResumeText: "cv", JobDescription: "jd"})
	require.NoError(t, err)
	assert.Equal(t, 0.25, res.SemanticScore)
}
