package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"

	"indexly/internal/ingest"
	"indexly/internal/source"
)

type PipelineSuite struct {
	suite.Suite
	ctx     context.Context
	dataDir string
	store   *ingest.InMemoryStore
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineSuite))
}

func (s *PipelineSuite) SetupTest() {
	s.ctx = context.Background()
	s.dataDir = s.T().TempDir()
	s.store = ingest.NewInMemory()
}

func (s *PipelineSuite) newPipeline(withStorage bool) *Pipeline {
	opts := []Option{WithWindow(Window{MinYear: 1958, MaxYear: 2025})}
	if withStorage {
		engine := ingest.NewEngine(s.store)
		opts = append(opts, WithStorage(engine, s.store))
	}
	return New(source.NewFetcher(s.dataDir), filepath.Join(s.dataDir, "previews"), opts...)
}

func (s *PipelineSuite) writeFixture(name, content string) string {
	path := filepath.Join(s.T().TempDir(), name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (s *PipelineSuite) writeAnnexFixture() string {
	f := excelize.NewFile()
	defer f.Close()
	s.Require().NoError(f.SetSheetName("Sheet1", "Table 1"))

	rows := [][]any{
		{"Item", "State", "Year", "Month", "Index"},
		{"General", "All India", 2024, "January", "155.3"},
		{"General", "All India", 1900, "January", "12.1"},
	}
	for i, row := range rows {
		s.Require().NoError(f.SetSheetRow("Table 1", fmt.Sprintf("A%d", i+1), &row))
	}

	path := filepath.Join(s.T().TempDir(), "annex.xlsx")
	s.Require().NoError(f.SaveAs(path))
	return path
}

func (s *PipelineSuite) allSources() Sources {
	return Sources{
		MOSPIAnnexes: []string{s.writeAnnexFixture()},
		DataGovResources: []string{s.writeFixture("cpi.csv",
			"item,state,sector,year,month,value\nRice,Delhi,Urban,2024,Jan,142.7\n")},
		IMFSeries: []string{s.writeFixture("imf.json",
			`{"series":[{"item":"General","region":"India","year":2024,"month":"Feb","value":158.2}]}`)},
		DPIITResources: []string{s.writeFixture("wpi.csv",
			"commodity,year,month,index\nAll Commodities,2024,Apr,154.2\n")},
	}
}

func (s *PipelineSuite) readPreview(path string) [][]string {
	f, err := os.Open(path)
	s.Require().NoError(err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	s.Require().NoError(err)
	return records
}

func (s *PipelineSuite) TestDryRunWritesPreviewsWithoutPersisting() {
	pipe := s.newPipeline(true)

	summary, err := pipe.Run(s.ctx, s.allSources(), true)
	s.Require().NoError(err)
	s.Require().Len(summary.Batches, 4)
	s.Equal(4, summary.Totals.Batches)
	s.Equal(4, summary.Totals.Rows)
	s.Nil(summary.Totals.Validation)

	for _, batch := range summary.Batches {
		s.Equal(StatusPreview, batch.Status, "source %s", batch.Source)
		s.NotEmpty(batch.Checksum)
		s.Empty(batch.RunID)

		records := s.readPreview(batch.Preview)
		s.Require().NotEmpty(records)
		s.Equal([]string{"item_alias", "region_alias", "year", "month", "index_value"}, records[0])
		s.Len(records, 1+batch.Rows)
	}

	// Nothing reached storage.
	s.Equal(0, s.store.RawCount())
	s.Equal(0, s.store.FactCount())
	s.Empty(s.store.Runs())
}

func (s *PipelineSuite) TestRunWithoutStorageAlwaysPreviews() {
	pipe := s.newPipeline(false)

	summary, err := pipe.Run(s.ctx, s.allSources(), false)
	s.Require().NoError(err)
	for _, batch := range summary.Batches {
		s.Equal(StatusPreview, batch.Status)
	}
	s.Nil(summary.Totals.Validation)
}

func (s *PipelineSuite) TestRunIngestsAllSources() {
	pipe := s.newPipeline(true)

	summary, err := pipe.Run(s.ctx, s.allSources(), false)
	s.Require().NoError(err)
	s.Require().Len(summary.Batches, 4)

	for _, batch := range summary.Batches {
		s.Equal(StatusIngested, batch.Status, "source %s", batch.Source)
		s.NotEmpty(batch.RunID)
		s.Empty(batch.Preview)
	}

	s.Equal(4, s.store.RawCount())
	s.Equal(4, s.store.FactCount())
	s.Len(s.store.Runs(), 4)

	s.Require().NotNil(summary.Totals.Validation)
	s.Equal(ingest.FactDate(2024, 4), summary.Totals.Validation.LatestFactDate)
}

func (s *PipelineSuite) TestScopeFilterDropsOutOfWindowRows() {
	pipe := s.newPipeline(true)

	summary, err := pipe.Run(s.ctx, Sources{MOSPIAnnexes: []string{s.writeAnnexFixture()}}, false)
	s.Require().NoError(err)
	s.Require().Len(summary.Batches, 1)
	// The 1900 row never makes it past the window.
	s.Equal(1, summary.Batches[0].Rows)
	s.Equal(1, s.store.FactCount())
}

func (s *PipelineSuite) TestSchemaErrorAbortsRemainingBatches() {
	pipe := s.newPipeline(true)

	srcs := s.allSources()
	srcs.DataGovResources = []string{s.writeFixture("broken.csv", "item,state,year\nRice,Delhi,2024\n")}

	summary, err := pipe.Run(s.ctx, srcs, false)
	s.Require().Error(err)
	var schemaErr *source.SchemaError
	s.Require().ErrorAs(err, &schemaErr)

	// The annex batch finished, the broken one is recorded, the rest never ran.
	s.Require().Len(summary.Batches, 2)
	s.Equal(StatusIngested, summary.Batches[0].Status)
	s.Equal(StatusFailed, summary.Batches[1].Status)
	s.NotEmpty(summary.Batches[1].Error)

	// The completed batch's writes survive the abort.
	s.Equal(1, s.store.RawCount())
}

func (s *PipelineSuite) TestMissingFileFailsBatch() {
	pipe := s.newPipeline(true)

	summary, err := pipe.Run(s.ctx, Sources{
		IMFSeries: []string{filepath.Join(s.T().TempDir(), "absent.json")},
	}, false)
	s.Require().Error(err)
	s.Require().Len(summary.Batches, 1)
	s.Equal(StatusFailed, summary.Batches[0].Status)
}

func TestSourcesEmpty(t *testing.T) {
	var none Sources
	if !none.Empty() {
		t.Fatal("zero Sources should be empty")
	}
	if (Sources{IMFSeries: []string{"x"}}).Empty() {
		t.Fatal("configured Sources should not be empty")
	}
}
