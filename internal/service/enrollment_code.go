package service

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

const (
	// EnrollmentCodeAlphabet is A-Z without the look-alikes I and O.
	EnrollmentCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	// DefaultCodeMaxAttempts bounds the candidates drawn for one code.
	DefaultCodeMaxAttempts = 10

	codeLetters = 3
	codeDigits  = 4
)

var enrollmentCodePattern = regexp.MustCompile(`^[A-HJ-NP-Z]{3}-[0-9]{4}$`)

// ValidEnrollmentCode reports whether code has the LLL-DDDD shape over the restricted alphabet.
func ValidEnrollmentCode(code string) bool {
	return enrollmentCodePattern.MatchString(code)
}

// NewCodeRand returns a time-seeded source for code generation.
func NewCodeRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func randomEnrollmentCode(rnd *rand.Rand) string {
	buf := make([]byte, 0, codeLetters+1+codeDigits)
	for i := 0; i < codeLetters; i++ {
		buf = append(buf, EnrollmentCodeAlphabet[rnd.Intn(len(EnrollmentCodeAlphabet))])
	}
	buf = append(buf, '-')
	for i := 0; i < codeDigits; i++ {
		buf = append(buf, byte('0'+rnd.Intn(10)))
	}
	return string(buf)
}

func exhaustedError(attempts int) error {
	return appErrors.Clone(appErrors.ErrCodeExhausted, fmt.Sprintf("no unique enrollment code after %d attempts", attempts))
}

// GenerateEnrollmentCode draws candidates until one is absent from existing, giving up after maxAttempts.
// The returned error is ErrCodeExhausted when every candidate collided.
func GenerateEnrollmentCode(existing map[string]struct{}, maxAttempts int, rnd *rand.Rand) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultCodeMaxAttempts
	}
	if rnd == nil {
		rnd = NewCodeRand()
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code := randomEnrollmentCode(rnd)
		if _, taken := existing[code]; !taken {
			return code, nil
		}
	}
	return "", exhaustedError(maxAttempts)
}

type codeLookup interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// EnrollmentCodeGenerator produces codes that are not yet stored in the sections table.
type EnrollmentCodeGenerator struct {
	lookup      codeLookup
	maxAttempts int
	metrics     *MetricsService
	logger      *zap.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewEnrollmentCodeGenerator constructs a generator backed by lookup.
func NewEnrollmentCodeGenerator(lookup codeLookup, maxAttempts int, rnd *rand.Rand, metrics *MetricsService, logger *zap.Logger) *EnrollmentCodeGenerator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultCodeMaxAttempts
	}
	if rnd == nil {
		rnd = NewCodeRand()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentCodeGenerator{lookup: lookup, maxAttempts: maxAttempts, rnd: rnd, metrics: metrics, logger: logger}
}

func (g *EnrollmentCodeGenerator) candidate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return randomEnrollmentCode(g.rnd)
}

// Generate returns a code that no section currently holds. Lookup failures abort immediately.
func (g *EnrollmentCodeGenerator) Generate(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		code := g.candidate()
		exists, err := g.lookup.CodeExists(ctx, code)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment code")
		}
		if !exists {
			g.metrics.ObserveCodeGeneration(attempt, false)
			return code, nil
		}
		g.logger.Debug("enrollment code collision", zap.String("code", code), zap.Int("attempt", attempt))
	}
	g.metrics.ObserveCodeGeneration(g.maxAttempts, true)
	g.logger.Warn("enrollment code generation exhausted", zap.Int("attempts", g.maxAttempts))
	return "", exhaustedError(g.maxAttempts)
}
