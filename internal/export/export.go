package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/twosidefinance/twoside-core/internal/storage/models"
	"go.uber.org/zap"
)

// Format represents the export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Options configures the export behavior
type Options struct {
	Format        Format
	StartTime     time.Time
	EndTime       time.Time
	AssetFilter   string // Filter by asset address
	KindFilter    string // Filter by operation kind (lock/unlock/...)
	OnlyCompleted bool   // Only export completed operations
	OutputDir     string
}

// Exporter writes the off-chain operation trail to disk for audits
// and support queries.
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new operation exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{
		logger: logger,
	}
}

// ExportOperations exports operations based on the provided options
func (e *Exporter) ExportOperations(ops []*models.Operation, options Options) (string, error) {
	filtered := e.filterOperations(ops, options)

	if len(filtered) == 0 {
		return "", fmt.Errorf("no operations match the export criteria")
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	filename := e.generateFilename(options)
	outputPath := filepath.Join(options.OutputDir, filename)

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	switch options.Format {
	case FormatCSV:
		err = e.exportToCSV(filtered, outputPath)
	case FormatJSON:
		err = e.exportToJSON(filtered, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}

	if err != nil {
		return "", err
	}

	e.logger.Info("Operations exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

// filterOperations applies filters to the operation list
func (e *Exporter) filterOperations(ops []*models.Operation, options Options) []*models.Operation {
	var filtered []*models.Operation

	for _, op := range ops {
		if !options.StartTime.IsZero() && op.CreatedAt.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && op.CreatedAt.After(options.EndTime) {
			continue
		}

		if options.AssetFilter != "" && op.Asset != options.AssetFilter {
			continue
		}

		if options.KindFilter != "" && op.Kind != options.KindFilter {
			continue
		}

		if options.OnlyCompleted && op.Status != models.OperationCompleted {
			continue
		}

		filtered = append(filtered, op)
	}

	return filtered
}

// generateFilename creates a filename based on export options
func (e *Exporter) generateFilename(options Options) string {
	timestamp := time.Now().Format("20060102_150405")

	var prefix string
	if options.KindFilter != "" {
		prefix = fmt.Sprintf("operations_%s", options.KindFilter)
	} else {
		prefix = "operations_all"
	}

	if options.AssetFilter != "" && len(options.AssetFilter) >= 8 {
		prefix += "_" + options.AssetFilter[:8]
	}

	return fmt.Sprintf("%s_%s.%s", prefix, timestamp, options.Format)
}

func csvHeaders() []string {
	return []string{
		"operation_id", "created_at", "kind", "caller", "asset", "derivative",
		"amount", "fee", "developer_share", "founder_share",
		"tx_id", "status", "error", "execution_time_s",
	}
}

func csvRow(op *models.Operation) []string {
	return []string{
		op.OperationID,
		op.CreatedAt.UTC().Format(time.RFC3339),
		op.Kind,
		op.Caller,
		op.Asset,
		op.Derivative,
		strconv.FormatUint(op.Amount, 10),
		strconv.FormatUint(op.Fee, 10),
		strconv.FormatUint(op.DeveloperShare, 10),
		strconv.FormatUint(op.FounderShare, 10),
		op.TxID,
		op.Status,
		op.ErrorMessage,
		strconv.FormatFloat(op.ExecutionTime, 'f', 3, 64),
	}
}

// exportToCSV exports operations to CSV format
func (e *Exporter) exportToCSV(ops []*models.Operation, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(csvHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, op := range ops {
		if err := writer.Write(csvRow(op)); err != nil {
			return fmt.Errorf("failed to write operation: %w", err)
		}
	}

	return nil
}

// exportToJSON exports operations to JSON format
func (e *Exporter) exportToJSON(ops []*models.Operation, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	exportData := struct {
		ExportTime     time.Time           `json:"export_time"`
		OperationCount int                 `json:"operation_count"`
		Operations     []*models.Operation `json:"operations"`
		Summary        Summary             `json:"summary"`
	}{
		ExportTime:     time.Now(),
		OperationCount: len(ops),
		Operations:     ops,
		Summary:        e.calculateSummary(ops),
	}

	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

// calculateSummary calculates summary statistics for the export
func (e *Exporter) calculateSummary(ops []*models.Operation) Summary {
	summary := Summary{
		TotalOperations: len(ops),
	}

	if len(ops) == 0 {
		return summary
	}

	summary.StartDate = ops[0].CreatedAt
	summary.EndDate = ops[len(ops)-1].CreatedAt

	assetSet := make(map[string]bool)

	for _, op := range ops {
		if op.Asset != "" {
			assetSet[op.Asset] = true
		}

		switch op.Status {
		case models.OperationCompleted:
			summary.CompletedOperations++
		case models.OperationFailed:
			summary.FailedOperations++
		}

		if op.Status != models.OperationCompleted {
			continue
		}

		switch op.Kind {
		case models.OperationLock:
			summary.LockCount++
			summary.TotalLockedVolume += op.Amount
			summary.TotalFees += op.Fee
			summary.DeveloperFees += op.DeveloperShare
			summary.FounderFees += op.FounderShare
		case models.OperationUnlock:
			summary.UnlockCount++
			summary.TotalUnlockedVolume += op.Amount
			summary.TotalFees += op.Fee
			summary.DeveloperFees += op.DeveloperShare
			summary.FounderFees += op.FounderShare
		case models.OperationWhitelist:
			summary.WhitelistCount++
		}
	}

	summary.UniqueAssets = len(assetSet)

	return summary
}

// Summary contains summary statistics for exported operations
type Summary struct {
	TotalOperations     int       `json:"total_operations"`
	CompletedOperations int       `json:"completed_operations"`
	FailedOperations    int       `json:"failed_operations"`
	LockCount           int       `json:"lock_count"`
	UnlockCount         int       `json:"unlock_count"`
	WhitelistCount      int       `json:"whitelist_count"`
	UniqueAssets        int       `json:"unique_assets"`
	TotalLockedVolume   uint64    `json:"total_locked_volume"`
	TotalUnlockedVolume uint64    `json:"total_unlocked_volume"`
	TotalFees           uint64    `json:"total_fees"`
	DeveloperFees       uint64    `json:"developer_fees"`
	FounderFees         uint64    `json:"founder_fees"`
	StartDate           time.Time `json:"start_date"`
	EndDate             time.Time `json:"end_date"`
}

// ExportDailyReport exports a daily activity report for one calendar day
func (e *Exporter) ExportDailyReport(ops []*models.Operation, date time.Time, outputDir string) (string, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	options := Options{
		Format:    FormatJSON,
		StartTime: startOfDay,
		EndTime:   endOfDay,
		OutputDir: outputDir,
	}

	filename := fmt.Sprintf("daily_report_%s.json", startOfDay.Format("20060102"))
	outputPath := filepath.Join(outputDir, filename)

	filtered := e.filterOperations(ops, options)

	if len(filtered) == 0 {
		e.logger.Info("No operations for daily report",
			zap.Time("date", startOfDay))
		return "", nil
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	report := DailyReport{
		Date:            startOfDay,
		OperationCount:  len(filtered),
		Operations:      filtered,
		Summary:         e.calculateSummary(filtered),
		HourlyBreakdown: e.calculateHourlyBreakdown(filtered),
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(report); err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	e.logger.Info("Daily report exported",
		zap.String("file", outputPath),
		zap.Time("date", startOfDay),
		zap.Int("operations", len(filtered)))

	return outputPath, nil
}

// DailyReport represents one day of protocol activity
type DailyReport struct {
	Date            time.Time           `json:"date"`
	OperationCount  int                 `json:"operation_count"`
	Summary         Summary             `json:"summary"`
	HourlyBreakdown []HourlyStats       `json:"hourly_breakdown"`
	Operations      []*models.Operation `json:"operations"`
}

// HourlyStats represents protocol activity for one hour
type HourlyStats struct {
	Hour           int    `json:"hour"`
	OperationCount int    `json:"operation_count"`
	LockCount      int    `json:"lock_count"`
	UnlockCount    int    `json:"unlock_count"`
	Volume         uint64 `json:"volume"`
	Fees           uint64 `json:"fees"`
}

// calculateHourlyBreakdown calculates hourly activity statistics
func (e *Exporter) calculateHourlyBreakdown(ops []*models.Operation) []HourlyStats {
	hourlyMap := make(map[int]*HourlyStats)

	for _, op := range ops {
		hour := op.CreatedAt.Hour()

		stats, exists := hourlyMap[hour]
		if !exists {
			stats = &HourlyStats{Hour: hour}
			hourlyMap[hour] = stats
		}

		stats.OperationCount++

		if op.Status != models.OperationCompleted {
			continue
		}

		switch op.Kind {
		case models.OperationLock:
			stats.LockCount++
			stats.Volume += op.Amount
			stats.Fees += op.Fee
		case models.OperationUnlock:
			stats.UnlockCount++
			stats.Volume += op.Amount
			stats.Fees += op.Fee
		}
	}

	var breakdown []HourlyStats
	for hour := 0; hour < 24; hour++ {
		if stats, exists := hourlyMap[hour]; exists {
			breakdown = append(breakdown, *stats)
		}
	}

	return breakdown
}
