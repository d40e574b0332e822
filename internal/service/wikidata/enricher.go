package wikidata

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/openjordan/healthatlas/internal/domain"
	"github.com/openjordan/healthatlas/internal/pkg/logger"
	"github.com/openjordan/healthatlas/internal/pkg/store"
	"golang.org/x/sync/errgroup"
)

const DefaultBaseURL = "https://www.wikidata.org"

// Labels are the entity labels of one Wikidata item in the two languages the
// dataset carries.
type Labels struct {
	En string
	Ar string
}

// Service repairs units that have a Wikidata id but a missing name by
// fetching the entity page and reading its labels.
type Service struct {
	store   store.Store
	baseURL string
}

func NewService(store store.Store, baseURL string) *Service {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Service{store: store, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// BackfillLabels fans out over every unit missing a name and upserts the
// labels found. Units whose entity page lacks the needed label are left
// untouched.
func (s *Service) BackfillLabels(ctx context.Context) ([]*domain.AdministrativeUnit, error) {
	units, err := s.store.ListUnitsMissingNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListUnitsMissingNames: %w", err)
	}

	updated := make([]*domain.AdministrativeUnit, 0, len(units))
	updatedMx := sync.Mutex{}
	eg, egCtx := errgroup.WithContext(ctx)
	for _, unit := range units {
		unit := unit
		eg.Go(func() error {
			labels, err := s.fetchLabels(egCtx, unit.ExternalID)
			if err != nil {
				return fmt.Errorf("fetchLabels, external_id-%s: %w", unit.ExternalID, err)
			}

			nameAr, nameEn := "", ""
			if unit.NameAr == "" && labels.Ar != "" {
				nameAr = labels.Ar
			}
			if unit.NameEn == "" && labels.En != "" {
				nameEn = labels.En
			}
			if nameAr == "" && nameEn == "" {
				return nil
			}

			if err := s.store.UpdateUnitNames(ctx, unit.UnitID, nameAr, nameEn); err != nil {
				return fmt.Errorf("UpdateUnitNames, unit_id-%s: %w", unit.UnitID, err)
			}

			logger.Infof(ctx, "backfilled labels for %s from %s", unit.UnitID, unit.ExternalID)

			updatedMx.Lock()
			defer updatedMx.Unlock()
			updated = append(updated, unit)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("err in goroutine: %w", err)
	}

	return updated, nil
}

func (s *Service) fetchLabels(ctx context.Context, entityID string) (labels *Labels, err error) {
	var resp *http.Response
	err = backoff.Retry(
		func() error {
			var httpErr error

			resp, httpErr = http.Get(fmt.Sprintf("%s/wiki/%s", s.baseURL, entityID))
			if httpErr != nil {
				return fmt.Errorf("http.Get: %w", httpErr)
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("status code error: %d %s", resp.StatusCode, resp.Status)
			}

			return nil
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(10*time.Millisecond), 10),
			ctx,
		),
	)
	if err != nil {
		return nil, err
	}

	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			err = fmt.Errorf("failed to close reader: %w", closeErr)
		}
	}()

	doc, parseErr := goquery.NewDocumentFromReader(resp.Body)
	if parseErr != nil {
		return nil, fmt.Errorf("goquery.NewDocumentFromReader: %w", parseErr)
	}

	return ParseLabels(doc), nil
}

// ParseLabels reads the English title label and the Arabic entry of the
// in-more-languages table from an entity page.
func ParseLabels(doc *goquery.Document) *Labels {
	labels := &Labels{
		En: strings.TrimSpace(doc.Find("span.wikibase-title-label").First().Text()),
	}

	doc.Find("tr.wikibase-entitytermsforlanguageview").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		lang := strings.TrimSpace(tr.Find("td.wikibase-entitytermsforlanguageview-language").Text())
		if !strings.EqualFold(lang, "arabic") && lang != "ar" {
			return true
		}

		labels.Ar = strings.TrimSpace(tr.Find(".wikibase-labelview-text").First().Text())
		return false
	})

	return labels
}
