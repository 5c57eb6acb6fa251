package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/comitanigiacomo/2moro-engine/internal/core/ai"
	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
)

const (
	DefaultPredictedAge  = 25
	DefaultPredictedVibe = "Adventurer"
	UnknownZodiac        = "Unknown"

	InsightUnavailable = "AI Intelligence unavailable (Missing API Key)."
	InsightFailed      = "Unable to generate insight at this moment."

	zodiacCacheSize = 512

	// Upper bound for a zodiac lookup shared between callers. It runs
	// detached from any single caller's context.
	sharedCallTimeout = 5 * time.Minute
)

var (
	ErrUnparseableAnalysis   = errors.New("analysis contains neither age nor vibe")
	ErrEmptyZodiac           = errors.New("empty zodiac response")
	ErrIncompletePersonality = errors.New("personality response is missing its type")
)

var (
	ageRegex  = regexp.MustCompile(`(?i)Age:\s*(\d+)`)
	vibeRegex = regexp.MustCompile(`(?i)Vibe:\s*(.*)`)
)

const imagePrompt = "Analyze this profile picture. Predict the person's age (just a number) and give me 3 personality keywords that describe the vibe, comma separated. Format: Age: [number], Vibe: [word, word, word]."

// FallbackPersonality is served whenever the personality synthesis fails.
func FallbackPersonality() domain.PersonalityProfile {
	return domain.PersonalityProfile{
		PersonalityType: "Explorer",
		Description:     "A curious soul still mapping the territory between who you are and who you want to be.",
		CurrentTraits:   []string{"Stress", "Procrastination", "Anxiety", "Disorganization", "Lack of Sleep"},
		FutureTraits:    []string{"Calm under pressure", "Starts tasks right away", "Grounded and present", "Organized routines", "Rested and energized"},
	}
}

// ContentGenerator is satisfied by *ai.FallbackClient.
type ContentGenerator interface {
	GenerateContentWithFallback(ctx context.Context, prompt ai.Prompt) (string, error)
}

type ProfileService struct {
	gen      ContentGenerator
	users    domain.UserRepository
	memories domain.MemoryRepository
	logger   *zap.Logger

	zodiacCache *lru.Cache[string, string]
	flight      singleflight.Group
}

// NewProfileService accepts a nil generator: every synthesis then takes
// its fallback path.
func NewProfileService(gen ContentGenerator, users domain.UserRepository, memories domain.MemoryRepository, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}

	cache, err := lru.New[string, string](zodiacCacheSize)
	if err != nil {
		panic(fmt.Sprintf("profile service: zodiac cache: %v", err))
	}

	return &ProfileService{
		gen:         gen,
		users:       users,
		memories:    memories,
		logger:      logger,
		zodiacCache: cache,
	}
}

func (s *ProfileService) generate(ctx context.Context, prompt ai.Prompt) (string, error) {
	if s.gen == nil {
		return "", domain.ErrAIUnavailable
	}
	return s.gen.GenerateContentWithFallback(ctx, prompt)
}

// AnalyzePhoto stores the picture as the user's avatar, asks the model for
// an age and vibe estimate and records the upload as an image memory.
// Only a missing image is reported as an error.
func (s *ProfileService) AnalyzePhoto(ctx context.Context, userID string, image []byte, mimeType string) (domain.Synthesis[domain.ImageTraits], error) {
	if len(image) == 0 {
		return domain.Synthesis[domain.ImageTraits]{}, domain.ErrNoImage
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}

	avatar := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))
	s.saveAvatar(ctx, userID, avatar)

	traits := domain.ImageTraits{
		PredictedAge:  DefaultPredictedAge,
		PredictedVibe: DefaultPredictedVibe,
		Avatar:        avatar,
	}

	var result domain.Synthesis[domain.ImageTraits]

	text, err := s.generate(ctx, ai.ImagePrompt(imagePrompt, image, mimeType))
	if err != nil {
		s.logger.Warn("[AI] Image analysis failed, using defaults", zap.String("user_id", userID), zap.Error(err))
		traits.MemoryID = s.recordImageMemory(ctx, userID, avatar, "")
		result = domain.NewFallback(traits, err)
	} else {
		age, vibe, parseErr := ParseImageAnalysis(text)
		traits.PredictedAge = age
		traits.PredictedVibe = vibe
		traits.RawAnalysis = text
		traits.MemoryID = s.recordImageMemory(ctx, userID, avatar, text)

		if parseErr != nil {
			result = domain.NewFallback(traits, parseErr)
		} else {
			result = domain.NewSynthesized(traits)
		}
	}

	observeSynthesis("image", result.IsFallback())
	return result, nil
}

func (s *ProfileService) saveAvatar(ctx context.Context, userID, avatar string) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("Error loading user for avatar", zap.String("user_id", userID), zap.Error(err))
		return
	}

	if err := user.Apply(domain.UserPatch{Avatar: &avatar}); err != nil {
		s.logger.Error("Error applying avatar", zap.String("user_id", userID), zap.Error(err))
		return
	}

	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error("Error saving avatar", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *ProfileService) recordImageMemory(ctx context.Context, userID, avatar, analysis string) string {
	content := "Uploaded profile picture."
	if analysis != "" {
		content = fmt.Sprintf("Uploaded profile picture. AI Analysis: %s", analysis)
	}

	memory, err := domain.NewMemory(userID, content, domain.MemoryTypeImage, time.Now(), nil)
	if err != nil {
		s.logger.Error("Error building image memory", zap.String("user_id", userID), zap.Error(err))
		return ""
	}
	memory.ImageRef = avatar

	if err := s.memories.Create(ctx, memory); err != nil {
		s.logger.Error("Error creating image memory", zap.String("user_id", userID), zap.Error(err))
		return ""
	}

	return memory.ID
}

// ParseImageAnalysis extracts "Age: <digits>" and "Vibe: <rest of line>".
// Missing labels fall back to the defaults; the error is set only when
// neither label is present.
func ParseImageAnalysis(text string) (int, string, error) {
	age := DefaultPredictedAge
	vibe := DefaultPredictedVibe
	found := false

	if m := ageRegex.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			age = n
			found = true
		}
	}

	if m := vibeRegex.FindStringSubmatch(text); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			vibe = v
			found = true
		}
	}

	if !found {
		return age, vibe, ErrUnparseableAnalysis
	}
	return age, vibe, nil
}

// DeriveZodiac never fails: any problem yields UnknownZodiac.
func (s *ProfileService) DeriveZodiac(ctx context.Context, dob string) domain.Synthesis[string] {
	dob = strings.TrimSpace(dob)
	if dob == "" {
		observeSynthesis("zodiac", true)
		return domain.NewFallback(UnknownZodiac, domain.ErrBirthDateRequired)
	}

	if sign, ok := s.zodiacCache.Get(dob); ok {
		return domain.NewSynthesized(sign)
	}

	ch := s.flight.DoChan(dob, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedCallTimeout)
		defer cancel()

		prompt := fmt.Sprintf("The user was born on %s. Reply with their Zodiac sign name only, nothing else.", dob)

		text, err := s.generate(callCtx, ai.TextPrompt(prompt))
		if err != nil {
			return "", err
		}

		sign := CleanZodiac(text)
		if sign == "" {
			return "", ErrEmptyZodiac
		}

		s.zodiacCache.Add(dob, sign)
		return sign, nil
	})

	var (
		v   any
		err error
	)
	select {
	case res := <-ch:
		v, err = res.Val, res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		s.logger.Warn("[AI] Zodiac derivation failed", zap.String("dob", dob), zap.Error(err))
		observeSynthesis("zodiac", true)
		return domain.NewFallback(UnknownZodiac, err)
	}

	observeSynthesis("zodiac", false)
	return domain.NewSynthesized(v.(string))
}

var emphasisStripper = strings.NewReplacer("*", "", "_", "")

func CleanZodiac(text string) string {
	return strings.TrimSpace(emphasisStripper.Replace(text))
}

type personalityPayload struct {
	PersonalityType string   `json:"personalityType"`
	Description     string   `json:"description"`
	CurrentTraits   []string `json:"currentTraits"`
	FutureTraits    []string `json:"futureTraits"`
}

// GeneratePersonality never fails: any problem yields FallbackPersonality.
func (s *ProfileService) GeneratePersonality(ctx context.Context, zodiac string, answers map[string]string) domain.Synthesis[domain.PersonalityProfile] {
	text, err := s.generate(ctx, ai.TextPrompt(personalityPrompt(zodiac, answers)))
	if err != nil {
		s.logger.Warn("[AI] Personality generation failed", zap.Error(err))
		observeSynthesis("personality", true)
		return domain.NewFallback(FallbackPersonality(), err)
	}

	profile, err := ParsePersonality(text)
	if err != nil {
		s.logger.Warn("[AI] Personality response unusable", zap.Error(err))
		observeSynthesis("personality", true)
		return domain.NewFallback(FallbackPersonality(), err)
	}

	observeSynthesis("personality", false)
	return domain.NewSynthesized(profile)
}

func personalityPrompt(zodiac string, answers map[string]string) string {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, answers[k])
	}

	return fmt.Sprintf(`You are building a "me now" vs "me tomorrow" profile.
Zodiac sign: %s
Quiz answers:
%s
1. Give the personality type in two or three words.
2. Give a one-line description.
3. List 5 short phrases describing current flaws or struggles.
4. List 5 short phrases describing the strengths of their future self.

Return ONLY a JSON object like this:
{"personalityType": "...", "description": "...", "currentTraits": ["", "", "", "", ""], "futureTraits": ["", "", "", "", ""]}`, zodiac, b.String())
}

var fenceStripper = strings.NewReplacer("```json", "", "```", "")

// ParsePersonality strips markdown code fences and decodes the JSON object.
func ParsePersonality(text string) (domain.PersonalityProfile, error) {
	raw := strings.TrimSpace(fenceStripper.Replace(text))

	var payload personalityPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return domain.PersonalityProfile{}, fmt.Errorf("decode personality: %w", err)
	}

	if strings.TrimSpace(payload.PersonalityType) == "" {
		return domain.PersonalityProfile{}, ErrIncompletePersonality
	}

	return domain.PersonalityProfile{
		PersonalityType: strings.TrimSpace(payload.PersonalityType),
		Description:     strings.TrimSpace(payload.Description),
		CurrentTraits:   payload.CurrentTraits,
		FutureTraits:    payload.FutureTraits,
	}, nil
}

// SummarizePeople writes a short paragraph about the user's social circle.
func (s *ProfileService) SummarizePeople(ctx context.Context, names []string, memories []string) domain.Synthesis[string] {
	if s.gen == nil {
		observeSynthesis("insight", true)
		return domain.NewFallback(InsightUnavailable, domain.ErrAIUnavailable)
	}

	prompt := fmt.Sprintf(`You are an insightful digital biographer.
Analyze the following list of people and a collection of memories associated with them.
Provide a brief, single-paragraph insight about the user's social circle, quality of relationships, or a specific pattern you notice.
Keep it encouraging, deep, and sounding like a "Life OS" analysis.

People: %s
Memories: %s`, strings.Join(names, ", "), strings.Join(memories, " | "))

	text, err := s.generate(ctx, ai.TextPrompt(prompt))
	if err != nil {
		s.logger.Warn("[AI] People insight failed", zap.Error(err))
		observeSynthesis("insight", true)
		return domain.NewFallback(InsightFailed, err)
	}

	observeSynthesis("insight", false)
	return domain.NewSynthesized(strings.TrimSpace(text))
}
