package core

import (
	"context"
	"fmt"

	"guardianpaws/pkg/domain"
)

const (
	kittenTriageNote = "**AI Analysis:**\n" +
		"- **Animal Type:** Domestic Shorthair Kitten.\n" +
		"- **Observed Condition:** Limping, favoring right front paw. Possible sprain or minor fracture.\n" +
		"- **Urgency:** Moderate.\n" +
		"- **First Aid Suggestion:** Do not attempt to move the kitten if it is fearful. Provide water and wait for the NGO."
	dogTriageNote = "**AI Analysis:**\n" +
		"- **Animal Type:** Mixed-breed dog (Possibly Labrador mix).\n" +
		"- **Observed Condition:** Limping on left hind leg. Appears to be a stray but has a collar, suggesting it may be lost.\n" +
		"- **Urgency:** Moderate.\n" +
		"- **First Aid Suggestion:** Approach with caution. If the dog is friendly, check the collar for tags. Provide water."
)

// SeedResult identifies the records created by SeedDemo.
type SeedResult struct {
	Reporter domain.Actor
	NGO      domain.Actor
	Reports  []string
}

// SeedDemo loads the demo reporter, NGO and two reports into an empty
// store. It returns false without touching anything when the store already
// holds accounts or reports. Every record goes through the public
// operations, so the reporter ends with the points those operations award.
func (s *Service) SeedDemo(ctx context.Context) (SeedResult, bool, error) {
	if len(s.store.ListReporters()) > 0 || len(s.store.ListNGOs()) > 0 || len(s.store.ListReports()) > 0 {
		return SeedResult{}, false, nil
	}

	var res SeedResult
	reporter, err := s.Register(ctx, RegisterInput{Role: domain.RoleReporter, Name: "Aarav Sharma", Email: "aarav@test.com"})
	if err != nil {
		return res, false, fmt.Errorf("seed reporter: %w", err)
	}
	ngo, err := s.Register(ctx, RegisterInput{Role: domain.RoleNGO, Name: "Animal Angels Rescue", Email: "ngo@test.com", Location: "Delhi, India"})
	if err != nil {
		return res, false, fmt.Errorf("seed ngo: %w", err)
	}
	res.Reporter, res.NGO = reporter, ngo

	dog, err := s.SubmitReport(ctx, SubmitReportInput{
		ReporterID:  reporter.ID,
		PhotoURL:    "https://images.unsplash.com/photo-1543466835-00a7907e9de1?w=400&q=80",
		Description: "Dog with a collar looks lost and is limping badly near the park.",
		Location:    domain.Location{Latitude: 28.6315, Longitude: 77.2167},
		TriageNote:  dogTriageNote,
	})
	if err != nil {
		return res, false, fmt.Errorf("seed dog report: %w", err)
	}
	if _, err := s.UpdateStatus(ctx, dog.ID, domain.StatusAccepted, ngo); err != nil {
		return res, false, fmt.Errorf("seed accept: %w", err)
	}
	chat := []struct{ sender, text string }{
		{ngo.ID, "We have received the report and a team is on its way. ETA 20 minutes."},
		{reporter.ID, "Thank you so much! I will stay nearby and keep an eye on him."},
		{ngo.ID, "We have the dog. He seems okay, just scared. We will check for a microchip. Thank you for your help!"},
	}
	for _, line := range chat {
		if _, err := s.AppendMessage(ctx, dog.ID, line.sender, line.text); err != nil {
			return res, false, fmt.Errorf("seed message: %w", err)
		}
	}
	if _, err := s.UpdateStatus(ctx, dog.ID, domain.StatusRescued, ngo); err != nil {
		return res, false, fmt.Errorf("seed rescue: %w", err)
	}

	kitten, err := s.SubmitReport(ctx, SubmitReportInput{
		ReporterID:  reporter.ID,
		PhotoURL:    "https://images.unsplash.com/photo-1596854407944-bf87f6fdd49e?w=400&q=80",
		Description: "A small kitten seems to have hurt its paw. It is hiding under a car near the market.",
		Location:    domain.Location{Latitude: 28.6139, Longitude: 77.2090},
		TriageNote:  kittenTriageNote,
	})
	if err != nil {
		return res, false, fmt.Errorf("seed kitten report: %w", err)
	}
	res.Reports = []string{kitten.ID, dog.ID}
	s.logger.Info("seeded demo data", "reporter_id", reporter.ID, "ngo_id", ngo.ID, "reports", len(res.Reports))
	return res, true, nil
}
