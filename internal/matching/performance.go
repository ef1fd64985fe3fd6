package matching

import "context"

// UpdateProviderPerformance recomputes the averaged response time, completion
// rate, and rating for one property-provider assignment from the provider's
// work history there and persists the result. It is a batch refresh of the
// inputs the scorer later reads, not part of the matching path itself.
func (s *Service) UpdateProviderPerformance(ctx context.Context, providerID, propertyID string) error {
	records, err := s.Repo.ListProviderWork(ctx, providerID, propertyID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	perf := AggregatePerformance(records)
	if err := s.Repo.UpdateAssignmentPerformance(ctx, providerID, propertyID, perf); err != nil {
		return err
	}
	s.Logger.Info().
		Str("provider_id", providerID).
		Str("property_id", propertyID).
		Int("records", len(records)).
		Msg("provider performance refreshed")
	return nil
}

// AggregatePerformance reduces work records to arithmetic means. Fields with
// no samples stay nil so stale values are not overwritten with zeros.
func AggregatePerformance(records []WorkRecord) Performance {
	perf := Performance{}

	var respSum float64
	respCount := 0
	var ratingSum float64
	ratingCount := 0
	completed := 0

	for _, rec := range records {
		if rec.Completed {
			completed++
		}
		if rec.ResponseHours != nil {
			respSum += *rec.ResponseHours
			respCount++
		}
		if rec.Rating != nil {
			ratingSum += *rec.Rating
			ratingCount++
		}
	}

	if respCount > 0 {
		avg := respSum / float64(respCount)
		perf.AvgResponseHours = &avg
	}
	if ratingCount > 0 {
		avg := ratingSum / float64(ratingCount)
		perf.AvgRating = &avg
	}
	if len(records) > 0 {
		rate := float64(completed) / float64(len(records)) * 100
		perf.CompletionRate = &rate
	}
	return perf
}
