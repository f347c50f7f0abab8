package catalogue

import (
	"context"
	"fmt"
)

// SeedBooks are inserted into an empty store on first start.
var SeedBooks = []Book{
	{
		Title:         "A Fire Upon the Deep",
		Author:        "Vernor Vinge",
		Published:     "1992",
		FirstSentence: "The coldsleep itself was dreamless.",
	},
	{
		Title:         "The Ones Who Walk Away From Omelas",
		Author:        "Ursula K. Le Guin",
		Published:     "1973",
		FirstSentence: "With a clamor of bells that set the swallows soaring, the Festival of Summer came to the city Omelas, bright-towered by the sea.",
	},
	{
		Title:         "Dhalgren",
		Author:        "Samuel R. Delany",
		Published:     "1975",
		FirstSentence: "to wound the autumnal city.",
	},
}

// Seed stores books when the catalogue is empty and returns how many were
// inserted. A non-empty catalogue is left untouched.
func (s *Service) Seed(ctx context.Context, books []Book) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	if n > 0 {
		s.logger.Debug("catalogue not empty, skipping seed", "books", n)
		return 0, nil
	}

	inserted := 0
	for _, b := range books {
		b.ID = 0
		if _, err := s.Create(ctx, b); err != nil {
			return inserted, fmt.Errorf("failed to seed %q: %w", b.Title, err)
		}
		inserted++
	}

	s.logger.Info("Catalogue seeded", "books", inserted)
	return inserted, nil
}
