package filter

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/maltedev/amazon-bestsellers/internal/models"
)

var ErrUnparsableDiscount = errors.New("could not parse discount")

// ParseDiscount turns a listing discount such as "-53%" into its absolute
// percentage value.
func ParseDiscount(s string) (float64, error) {
	cleaned := strings.Trim(strings.TrimSpace(s), "%")
	cleaned = strings.TrimSpace(cleaned)

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) {
		return 0, fmt.Errorf("%w: %q", ErrUnparsableDiscount, s)
	}

	return math.Abs(value), nil
}

// Discount keeps records whose absolute discount is strictly above Threshold.
type Discount struct {
	Threshold float64
	logger    *slog.Logger
}

func NewDiscount(threshold float64, logger *slog.Logger) *Discount {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discount{
		Threshold: threshold,
		logger:    logger.With("component", "discount_filter"),
	}
}

// Keep reports whether the record passes. Unparsable discounts are logged
// and dropped.
func (d *Discount) Keep(p *models.ProductRecord) bool {
	if p == nil {
		return false
	}

	value, err := ParseDiscount(p.SaleDiscount)
	if err != nil {
		d.logger.Warn("could not parse discount", "discount", p.SaleDiscount, "name", p.Name)
		return false
	}

	return value > d.Threshold
}
