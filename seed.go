package corpus

import (
	"fmt"
	"os"
	"path/filepath"
)

// sampleDocs is a small fixed corpus of corporate documents used for
// demonstrations and smoke tests: quarterly reports, project retros, and
// policy pages.
var sampleDocs = []struct {
	name    string
	content string
}{
	{
		name: "sales_report_q3_2025.md",
		content: `# Q3 2025 Sales Performance Report

## Executive Summary
Q3 sales exceeded target by 15%, driven by enterprise segment growth and
improved conversion rates across all regions.

## Key Metrics
- Total Revenue: $12.4M (115% of target)
- New Enterprise Customers: 23 (109% of target)
- Average Deal Size: $54,000 (112% of target)
- Sales Cycle: 67 days average

## Regional Performance
- North America: $7.4M (110% of target)
- Europe: $3.1M (104% of target)
- Asia-Pacific: $1.9M (121% of target)

## Forecast
Next quarter projection: $13.1M. Full year outlook remains optimistic.
`,
	},
	{
		name: "sales_report_q2_2025.md",
		content: `# Q2 2025 Sales Performance Report

## Executive Summary
The second quarter showed steady performance with revenue at 98% of
target. Longer sales cycles in the enterprise segment offset strong
mid-market conversion.

## Key Metrics
- Total Revenue: $10.8M (98% of target)
- New Enterprise Customers: 18 (90% of target)
- Average Deal Size: $47,000 (101% of target)

## Challenges
Competitive pressure in core segments and pricing pressure on renewals.
`,
	},
	{
		name: "project_phoenix_retrospective.md",
		content: `# Project Phoenix Retrospective

## What Went Well
The Phoenix platform migration finished two weeks ahead of schedule.
Query latency dropped 40% after the storage tier rewrite, and the
engineering team kept incident count at zero through the cutover.

## What Could Improve
Capacity planning underestimated peak ingestion load. The rollout
runbook missed two rollback steps discovered during the dry run.

## Action Items
- Double ingestion headroom before the Titan launch
- Add rollback rehearsal to the release checklist
`,
	},
	{
		name: "engineering_oncall_policy.md",
		content: `# Engineering On-Call Policy

Every production service has a primary and secondary on-call rotation.
Pages must be acknowledged within five minutes; incidents above SEV2
require an incident commander within fifteen minutes.

Handoff happens Mondays at 10:00 local time with a written summary of
open issues. Post-incident reviews are due within five business days
and are blameless.
`,
	},
	{
		name: "hr_remote_work_policy.txt",
		content: `Remote Work Policy

Employees may work remotely up to three days per week with manager
approval. Core collaboration hours are 10:00 to 15:00 in the team's
primary time zone. Equipment stipends cover a monitor, keyboard, and
chair, renewed every three years.

Department: HR
Effective: 2025-01-01
`,
	},
	{
		name: "finance_budget_2026.md",
		content: `# FY2026 Budget Planning Memo

## Overview
Department budgets for fiscal year 2026 are due October 15. Finance
will consolidate submissions and return variance feedback within two
weeks.

## Guidance
- Baseline growth capped at 6% over FY2025 actuals
- Headcount requests require a one-page justification
- Capital expenditure above $50,000 needs CFO sign-off
`,
	},
}

// SeedSampleDocuments writes the sample corpus into dir, creating it if
// needed. A directory that already contains files is left untouched.
// Returns the number of documents written.
func SeedSampleDocuments(dir string) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	if len(entries) > 0 {
		return 0, nil
	}

	for _, doc := range sampleDocs {
		path := filepath.Join(dir, doc.name)
		if err := os.WriteFile(path, []byte(doc.content), 0644); err != nil {
			return 0, fmt.Errorf("write %s: %w", doc.name, err)
		}
	}
	return len(sampleDocs), nil
}
