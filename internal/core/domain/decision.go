package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Decision is the outcome of evaluating one ad against a threshold table.
// Reason always embeds the compared values so audit logs are self-contained.
type Decision struct {
	Pass   bool
	Reason string
}

// Evaluate applies the threshold table to an ad's spend and conversions.
//
// The rule, in order:
//  1. conversions above the highest configured bar pass outright;
//  2. a threshold whose bar equals the conversion count caps spend at its
//     configured amount;
//  3. with no exact match, any threshold with a lower bar already cleared
//     means pass;
//  4. otherwise the lowest threshold applies: spend at or past it with
//     conversions under its bar fails.
//
// The table is sorted by spend ascending before evaluation; the input slice
// is not mutated. An empty table passes everything.
func Evaluate(spend decimal.Decimal, conversions int, thresholds []ThresholdEntry) Decision {
	if len(thresholds) == 0 {
		return Decision{Pass: true, Reason: "no thresholds configured"}
	}

	sorted := make([]ThresholdEntry, len(thresholds))
	copy(sorted, thresholds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Spend.LessThan(sorted[j].Spend) })

	maxConv := sorted[0].MinConversions
	for _, t := range sorted[1:] {
		if t.MinConversions > maxConv {
			maxConv = t.MinConversions
		}
	}
	if conversions > maxConv {
		return Decision{
			Pass:   true,
			Reason: fmt.Sprintf("%d conversions exceed the highest configured bar of %d", conversions, maxConv),
		}
	}

	// Exact conversion match caps spend at that threshold.
	for _, t := range sorted {
		if t.MinConversions == conversions {
			if spend.GreaterThanOrEqual(t.Spend) {
				return Decision{
					Pass: false,
					Reason: fmt.Sprintf("spend %s reached the %s cap for %d conversions",
						spend, t.Spend, conversions),
				}
			}
			return Decision{
				Pass: true,
				Reason: fmt.Sprintf("spend %s below threshold %s at %d conversions",
					spend, t.Spend, conversions),
			}
		}
	}

	// No exact match: clearing any lower bar is good enough.
	for _, t := range sorted {
		if t.MinConversions < conversions {
			return Decision{
				Pass: true,
				Reason: fmt.Sprintf("%d conversions already clear the %d-conversion bar",
					conversions, t.MinConversions),
			}
		}
	}

	lowest := sorted[0]
	if spend.GreaterThanOrEqual(lowest.Spend) && conversions < lowest.MinConversions {
		return Decision{
			Pass: false,
			Reason: fmt.Sprintf("spend %s reached threshold %s with %d < %d conversions",
				spend, lowest.Spend, conversions, lowest.MinConversions),
		}
	}
	return Decision{
		Pass: true,
		Reason: fmt.Sprintf("spend %s below threshold %s with %d conversions",
			spend, lowest.Spend, conversions),
	}
}
