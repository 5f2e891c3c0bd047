package espn

import (
	"context"
	"fmt"
	"strings"

	"github.com/omarshaarawi/poolpicks/internal/models"
)

// GetTeamInjuries returns the current injury report for an ESPN team id.
// Players listed as active are left out.
func (a *API) GetTeamInjuries(ctx context.Context, teamID string) ([]models.Injury, error) {
	if teamID == "" {
		return nil, fmt.Errorf("fetching injuries: empty team id")
	}

	var resp models.InjuriesResponse
	if err := a.client.Get(ctx, "/teams/"+teamID+"/injuries", nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching injuries for team %s: %w", teamID, err)
	}

	var injuries []models.Injury
	for _, entry := range resp.Injuries {
		status := strings.TrimSpace(entry.Status)
		if entry.Athlete.DisplayName == "" || status == "" || strings.EqualFold(status, "active") {
			continue
		}
		injuries = append(injuries, models.Injury{
			Player:   entry.Athlete.DisplayName,
			Position: entry.Athlete.Position.Abbreviation,
			Status:   status,
			Detail:   entry.Details.Type,
		})
	}
	return injuries, nil
}
