package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/riskibarqy/player-scout/internal/domain/profile"
	"github.com/riskibarqy/player-scout/internal/platform/logging"
	"github.com/valyala/bytebufferpool"
)

const scoutingSystemPrompt = "You are a football scouting expert, sports data analyst and transfer consultant with deep knowledge of the modern game, the transfer market and statistical analysis."

// ScoutingService writes natural-language scouting reports for profiles.
type ScoutingService struct {
	repo      profile.Repository
	generator TextGenerator
	logger    *logging.Logger
}

func NewScoutingService(repo profile.Repository, generator TextGenerator, logger *logging.Logger) *ScoutingService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ScoutingService{repo: repo, generator: generator, logger: logger}
}

// GenerateReport writes a fresh report for the stored profile and saves it.
func (s *ScoutingService) GenerateReport(ctx context.Context, profileID string) (profile.Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoutingService.GenerateReport")
	defer span.End()

	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return profile.Profile{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}

	item, exists, err := s.repo.GetByID(ctx, profileID)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("get profile by id: %w", err)
	}
	if !exists {
		return profile.Profile{}, fmt.Errorf("%w: player id=%s", ErrNotFound, profileID)
	}

	report, err := s.write(ctx, item)
	if err != nil {
		return profile.Profile{}, err
	}

	if err := s.repo.SaveScoutingReport(ctx, item.ID, report); err != nil {
		return profile.Profile{}, fmt.Errorf("save scouting report: %w", err)
	}
	item.ScoutingReport = report
	return item, nil
}

// EnsureReport fills a missing report in place. Failures are logged and the
// profile is returned as it was.
func (s *ScoutingService) EnsureReport(ctx context.Context, item profile.Profile) profile.Profile {
	if strings.TrimSpace(item.ScoutingReport) != "" {
		return item
	}

	report, err := s.write(ctx, item)
	if err != nil {
		s.logger.WarnContext(ctx, "scouting report skipped", "player", item.Name, "error", err)
		return item
	}
	item.ScoutingReport = report

	if item.ID != "" {
		if err := s.repo.SaveScoutingReport(ctx, item.ID, report); err != nil {
			s.logger.WarnContext(ctx, "save scouting report failed", "player_id", item.ID, "error", err)
		}
	}
	return item
}

func (s *ScoutingService) write(ctx context.Context, item profile.Profile) (string, error) {
	if s.generator == nil {
		return "", fmt.Errorf("%w: text generation is not configured", ErrDependencyUnavailable)
	}

	report, err := s.generator.Generate(ctx, TextRequest{
		System:      scoutingSystemPrompt,
		Prompt:      ScoutingPrompt(item),
		MaxTokens:   1200,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("%w: generate scouting report: %v", ErrDependencyUnavailable, err)
	}

	report = strings.TrimSpace(report)
	if report == "" {
		return "", fmt.Errorf("%w: empty scouting report", ErrDependencyUnavailable)
	}
	return report, nil
}

// ScoutingPrompt renders the profile facts the report is based on.
func ScoutingPrompt(item profile.Profile) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("Analyse the following player data and write a professional, detailed scouting report.\n\nPLAYER DATA:\n")
	writeLine(buf, "Name", item.Name)
	writeLine(buf, "Age", intOrNA(item.Age))
	writeLine(buf, "Nationality", textOrNA(item.Nationality))
	writeLine(buf, "Current club", textOrNA(item.CurrentClub))
	writeLine(buf, "Position", textOrNA(item.Position))
	writeLine(buf, "Height", textOrNA(item.Height))
	writeLine(buf, "Market value", textOrNA(item.MarketValue))

	_, _ = buf.WriteString("\nPERFORMANCE (" + item.Season + "):\n")
	writeLine(buf, "Goals", strconv.Itoa(item.Goals))
	writeLine(buf, "Assists", strconv.Itoa(item.Assists))
	writeLine(buf, "Appearances", strconv.Itoa(item.Appearances))
	writeLine(buf, "Minutes played", strconv.Itoa(item.MinutesPlayed))
	writeLine(buf, "Goals per match", strconv.FormatFloat(item.GoalsPerMatch, 'f', 2, 64))
	writeLine(buf, "Assists per match", strconv.FormatFloat(item.AssistsPerMatch, 'f', 2, 64))
	writeLine(buf, "Goal contributions", strconv.Itoa(item.Goals+item.Assists))

	_, _ = buf.WriteString(`
Cover:
1. TECHNICAL ANALYSIS: strengths, weaknesses, playing style.
2. STATISTICAL ANALYSIS: how the numbers compare with the standard for the position.
3. POTENTIAL AND MARKET VALUE: current value and likely development.
4. RECOMMENDATIONS: which clubs and leagues would suit the player.
5. OUTLOOK: likely trends for value and career.

Keep it around 400-500 words and base every claim on the data above.`)

	return buf.String()
}

func writeLine(buf *bytebufferpool.ByteBuffer, label, value string) {
	_, _ = buf.WriteString("- ")
	_, _ = buf.WriteString(label)
	_, _ = buf.WriteString(": ")
	_, _ = buf.WriteString(value)
	_ = buf.WriteByte('\n')
}

func textOrNA(value *string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return "N/A"
	}
	return *value
}

func intOrNA(value *int) string {
	if value == nil {
		return "N/A"
	}
	return strconv.Itoa(*value)
}
