package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/player-scout/internal/domain/profile"
)

type profileTableModel struct {
	ID                  int64          `db:"id"`
	PublicID            string         `db:"public_id"`
	Name                string         `db:"name"`
	NameKey             string         `db:"name_key"`
	Age                 sql.NullInt64  `db:"age"`
	Nationality         sql.NullString `db:"nationality"`
	Height              sql.NullString `db:"height"`
	CurrentClub         sql.NullString `db:"current_club"`
	Position            sql.NullString `db:"position"`
	PositionSource      sql.NullString `db:"position_source"`
	MarketValue         sql.NullString `db:"market_value"`
	Goals               int            `db:"goals"`
	Assists             int            `db:"assists"`
	Appearances         int            `db:"appearances"`
	MinutesPlayed       int            `db:"minutes_played"`
	GoalsPerMatch       float64        `db:"goals_per_match"`
	AssistsPerMatch     float64        `db:"assists_per_match"`
	ImageURL            sql.NullString `db:"image_url"`
	SourceWikidata      sql.NullString `db:"source_wikidata"`
	SourceTransfermarkt sql.NullString `db:"source_transfermarkt"`
	SourceFBref         sql.NullString `db:"source_fbref"`
	SourceWikipedia     sql.NullString `db:"source_wikipedia"`
	ScoutingReport      sql.NullString `db:"scouting_report"`
	Season              string         `db:"season"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

type profileInsertModel struct {
	PublicID            string  `db:"public_id"`
	Name                string  `db:"name"`
	NameKey             string  `db:"name_key"`
	Age                 *int    `db:"age"`
	Nationality         *string `db:"nationality"`
	Height              *string `db:"height"`
	CurrentClub         *string `db:"current_club"`
	Position            *string `db:"position"`
	PositionSource      *string `db:"position_source"`
	MarketValue         *string `db:"market_value"`
	Goals               int     `db:"goals"`
	Assists             int     `db:"assists"`
	Appearances         int     `db:"appearances"`
	MinutesPlayed       int     `db:"minutes_played"`
	GoalsPerMatch       float64 `db:"goals_per_match"`
	AssistsPerMatch     float64 `db:"assists_per_match"`
	ImageURL            *string `db:"image_url"`
	SourceWikidata      *string `db:"source_wikidata"`
	SourceTransfermarkt *string `db:"source_transfermarkt"`
	SourceFBref         *string `db:"source_fbref"`
	SourceWikipedia     *string `db:"source_wikipedia"`
	ScoutingReport      *string `db:"scouting_report"`
	Season              string  `db:"season"`
}

type nationalityCountModel struct {
	Nationality string `db:"nationality"`
	Players     int    `db:"players"`
}

func newProfileInsertModel(item profile.Profile) profileInsertModel {
	return profileInsertModel{
		PublicID:            item.ID,
		Name:                item.Name,
		NameKey:             item.NameKey,
		Age:                 item.Age,
		Nationality:         item.Nationality,
		Height:              item.Height,
		CurrentClub:         item.CurrentClub,
		Position:            item.Position,
		PositionSource:      optionalString(string(item.PositionSource)),
		MarketValue:         item.MarketValue,
		Goals:               item.Goals,
		Assists:             item.Assists,
		Appearances:         item.Appearances,
		MinutesPlayed:       item.MinutesPlayed,
		GoalsPerMatch:       item.GoalsPerMatch,
		AssistsPerMatch:     item.AssistsPerMatch,
		ImageURL:            item.ImageURL,
		SourceWikidata:      optionalString(item.Sources.Wikidata),
		SourceTransfermarkt: optionalString(item.Sources.Transfermarkt),
		SourceFBref:         optionalString(item.Sources.FBref),
		SourceWikipedia:     optionalString(item.Sources.Wikipedia),
		ScoutingReport:      optionalString(item.ScoutingReport),
		Season:              item.Season,
	}
}

func (row profileTableModel) toDomain() profile.Profile {
	return profile.Profile{
		ID:              row.PublicID,
		NameKey:         row.NameKey,
		Name:            row.Name,
		Age:             nullInt(row.Age),
		Nationality:     nullString(row.Nationality),
		Height:          nullString(row.Height),
		CurrentClub:     nullString(row.CurrentClub),
		Position:        nullString(row.Position),
		PositionSource:  profile.Source(row.PositionSource.String),
		MarketValue:     nullString(row.MarketValue),
		Goals:           row.Goals,
		Assists:         row.Assists,
		Appearances:     row.Appearances,
		MinutesPlayed:   row.MinutesPlayed,
		GoalsPerMatch:   row.GoalsPerMatch,
		AssistsPerMatch: row.AssistsPerMatch,
		ImageURL:        nullString(row.ImageURL),
		Sources: profile.Provenance{
			Wikidata:      row.SourceWikidata.String,
			Transfermarkt: row.SourceTransfermarkt.String,
			FBref:         row.SourceFBref.String,
			Wikipedia:     row.SourceWikipedia.String,
		},
		ScoutingReport: row.ScoutingReport.String,
		Season:         row.Season,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
