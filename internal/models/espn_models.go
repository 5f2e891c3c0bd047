package models

type ScoreboardResponse struct {
	Season SeasonInfo `json:"season"`
	Week   WeekNumber `json:"week"`
	Events []Event    `json:"events"`
}

type SeasonInfo struct {
	Year int `json:"year"`
	Type int `json:"type"`
}

type WeekNumber struct {
	Number int `json:"number"`
}

type Event struct {
	ID           string        `json:"id"`
	Date         string        `json:"date"`
	Name         string        `json:"name"`
	ShortName    string        `json:"shortName"`
	Week         WeekNumber    `json:"week"`
	Competitions []Competition `json:"competitions"`
	Status       EventStatus   `json:"status"`
}

type Competition struct {
	ID          string       `json:"id"`
	Date        string       `json:"date"`
	Venue       Venue        `json:"venue"`
	Competitors []Competitor `json:"competitors"`
	Status      EventStatus  `json:"status"`
	Odds        []Odds       `json:"odds"`
}

type Venue struct {
	FullName string `json:"fullName"`
}

type Competitor struct {
	ID       string   `json:"id"`
	HomeAway string   `json:"homeAway"`
	Winner   bool     `json:"winner"`
	Score    string   `json:"score"`
	Team     ProTeam  `json:"team"`
	Records  []Record `json:"records"`
}

type ProTeam struct {
	ID               string `json:"id"`
	Abbreviation     string `json:"abbreviation"`
	DisplayName      string `json:"displayName"`
	ShortDisplayName string `json:"shortDisplayName"`
}

type Record struct {
	Type    string `json:"type"`
	Summary string `json:"summary"`
}

type EventStatus struct {
	Type StatusType `json:"type"`
}

type StatusType struct {
	Name        string `json:"name"`
	State       string `json:"state"`
	Completed   bool   `json:"completed"`
	Description string `json:"description"`
}

type Odds struct {
	Details   string  `json:"details"`
	OverUnder float64 `json:"overUnder"`
}

type InjuriesResponse struct {
	Injuries []InjuryEntry `json:"injuries"`
}

type InjuryEntry struct {
	Status  string        `json:"status"`
	Athlete InjuryAthlete `json:"athlete"`
	Details InjuryDetails `json:"details"`
}

type InjuryAthlete struct {
	DisplayName string   `json:"displayName"`
	Position    Position `json:"position"`
}

type Position struct {
	Abbreviation string `json:"abbreviation"`
}

type InjuryDetails struct {
	Type       string `json:"type"`
	ReturnDate string `json:"returnDate"`
}
