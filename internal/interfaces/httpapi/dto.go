package httpapi

import (
	"time"

	"github.com/riskibarqy/player-scout/internal/domain/profile"
	"github.com/riskibarqy/player-scout/internal/usecase"
)

type resolveRequest struct {
	Name   string `json:"name" validate:"required,min=2,max=120"`
	Season string `json:"season" validate:"omitempty,len=9"`
	Report bool   `json:"report"`
}

type batchResolveRequest struct {
	Names  []string `json:"names" validate:"required,min=1,max=50,dive,required,max=120"`
	Season string   `json:"season" validate:"omitempty,len=9"`
}

type resolveJobRequest struct {
	Name   string `json:"name" validate:"required,max=120"`
	Season string `json:"season" validate:"omitempty,len=9"`
}

type profileSourcesDTO struct {
	Wikidata      *string `json:"wikidata,omitempty"`
	Transfermarkt *string `json:"transfermarkt,omitempty"`
	FBref         *string `json:"fbref,omitempty"`
	Wikipedia     *string `json:"wikipedia,omitempty"`
}

// Attributes no source supplied are left out of the payload rather than sent
// as null.
type profileDTO struct {
	ID              string            `json:"id,omitempty"`
	Name            string            `json:"name"`
	Age             *int              `json:"age,omitempty"`
	Nationality     *string           `json:"nationality,omitempty"`
	Height          *string           `json:"height,omitempty"`
	CurrentClub     *string           `json:"current_club,omitempty"`
	Position        *string           `json:"position,omitempty"`
	PositionSource  string            `json:"position_source,omitempty"`
	MarketValue     *string           `json:"market_value,omitempty"`
	Goals           int               `json:"goals"`
	Assists         int               `json:"assists"`
	Appearances     int               `json:"appearances"`
	MinutesPlayed   int               `json:"minutes_played"`
	GoalsPerMatch   float64           `json:"goals_per_match"`
	AssistsPerMatch float64           `json:"assists_per_match"`
	ImageURL        *string           `json:"image_url,omitempty"`
	Sources         profileSourcesDTO `json:"sources"`
	ScoutingReport  *string           `json:"scouting_report,omitempty"`
	Season          string            `json:"season"`
	UpdatedAt       string            `json:"updated_at,omitempty"`
}

type resolveResponseDTO struct {
	Profile   profileDTO        `json:"profile"`
	Persisted bool              `json:"persisted"`
	Sources   map[string]string `json:"source_outcomes"`
}

type batchResolveItemDTO struct {
	Query     string      `json:"query"`
	Status    string      `json:"status"`
	Message   string      `json:"message,omitempty"`
	Persisted bool        `json:"persisted"`
	Profile   *profileDTO `json:"profile,omitempty"`
}

type batchResolveResponseDTO struct {
	Mode        string                `json:"mode"`
	Season      string                `json:"season"`
	WorkerCount int                   `json:"worker_count,omitempty"`
	FoundCount  int                   `json:"found_count"`
	EmptyCount  int                   `json:"empty_count"`
	QueuedCount int                   `json:"queued_count"`
	FailedCount int                   `json:"failed_count"`
	Items       []batchResolveItemDTO `json:"items"`
}

type nationalityCountDTO struct {
	Nationality string `json:"nationality,omitempty"`
	Players     int    `json:"players"`
}

func profileToDTO(item profile.Profile) profileDTO {
	out := profileDTO{
		ID:              item.ID,
		Name:            item.Name,
		Age:             item.Age,
		Nationality:     item.Nationality,
		Height:          item.Height,
		CurrentClub:     item.CurrentClub,
		Position:        item.Position,
		PositionSource:  string(item.PositionSource),
		MarketValue:     item.MarketValue,
		Goals:           item.Goals,
		Assists:         item.Assists,
		Appearances:     item.Appearances,
		MinutesPlayed:   item.MinutesPlayed,
		GoalsPerMatch:   item.GoalsPerMatch,
		AssistsPerMatch: item.AssistsPerMatch,
		ImageURL:        item.ImageURL,
		Sources: profileSourcesDTO{
			Wikidata:      optionalText(item.Sources.Wikidata),
			Transfermarkt: optionalText(item.Sources.Transfermarkt),
			FBref:         optionalText(item.Sources.FBref),
			Wikipedia:     optionalText(item.Sources.Wikipedia),
		},
		ScoutingReport: optionalText(item.ScoutingReport),
		Season:         item.Season,
	}
	if !item.UpdatedAt.IsZero() {
		out.UpdatedAt = item.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func resolveResultToDTO(result usecase.ResolveResult) resolveResponseDTO {
	outcomes := make(map[string]string, len(result.Outcomes))
	for source, outcome := range result.Outcomes {
		outcomes[string(source)] = outcome
	}
	return resolveResponseDTO{
		Profile:   profileToDTO(result.Profile),
		Persisted: result.Persisted,
		Sources:   outcomes,
	}
}

func batchResultToDTO(result usecase.BatchResolveResult) batchResolveResponseDTO {
	items := make([]batchResolveItemDTO, 0, len(result.Items))
	for _, item := range result.Items {
		dto := batchResolveItemDTO{
			Query:     item.Query,
			Status:    item.Status,
			Message:   item.Message,
			Persisted: item.Persisted,
		}
		if item.Profile != nil {
			mapped := profileToDTO(*item.Profile)
			dto.Profile = &mapped
		}
		items = append(items, dto)
	}

	return batchResolveResponseDTO{
		Mode:        result.Mode,
		Season:      result.Season,
		WorkerCount: result.WorkerCount,
		FoundCount:  result.FoundCount,
		EmptyCount:  result.EmptyCount,
		QueuedCount: result.QueuedCount,
		FailedCount: result.FailedCount,
		Items:       items,
	}
}

func optionalText(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
