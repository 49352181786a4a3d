package agent

import (
	"context"
	"strings"
	"time"

	"github.com/concierge/concierge/internal/models"
)

// knowledgeEntry is one row of a provider's lookup table
type knowledgeEntry struct {
	Summary    string
	Details    map[string]interface{}
	Confidence float64
	Sources    []string
}

// TableProvider serves answers from a static in-process lookup table.
// The table's content is opaque to the rest of the system; only the
// confidence/sources envelope is inspected downstream.
type TableProvider struct {
	id      string
	topic   models.Topic
	timeout time.Duration
	entries map[string]knowledgeEntry
	general knowledgeEntry
}

// NewTableProvider creates a provider over a static table. The general
// entry answers when no table key matches the intent.
func NewTableProvider(id string, topic models.Topic, entries map[string]knowledgeEntry, general knowledgeEntry) *TableProvider {
	return &TableProvider{
		id:      id,
		topic:   topic,
		timeout: 2 * time.Second,
		entries: entries,
		general: general,
	}
}

func (p *TableProvider) ID() string                 { return p.id }
func (p *TableProvider) Topic() models.Topic        { return p.topic }
func (p *TableProvider) TimeoutHint() time.Duration { return p.timeout }

// Query answers from the lookup table. It honors context cancellation but
// is otherwise a pure table read.
func (p *TableProvider) Query(ctx context.Context, intent models.Intent) (*models.ProviderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry := p.general
	key := p.matchKey(intent)
	if key != "" {
		entry = p.entries[key]
	}

	payload := map[string]interface{}{"summary": entry.Summary}
	for k, v := range entry.Details {
		payload[k] = v
	}

	return &models.ProviderResult{
		ProviderID: p.id,
		Topic:      p.topic,
		Payload:    payload,
		Confidence: entry.Confidence,
		Sources:    entry.Sources,
	}, nil
}

// matchKey finds the first table key mentioned by the intent's topics
func (p *TableProvider) matchKey(intent models.Intent) string {
	topics := append([]models.Topic{intent.Primary}, intent.Secondary...)
	for _, t := range topics {
		if _, ok := p.entries[string(t)]; ok {
			return string(t)
		}
	}
	return ""
}

// DefaultProviders returns the built-in specialist set. Tables are kept
// intentionally small; real deployments load them from curated data.
func DefaultProviders() []Provider {
	return []Provider{
		NewTableProvider("business", models.TopicBusinessSetup,
			map[string]knowledgeEntry{
				string(models.TopicBusinessSetup): {
					Summary: "A foreign-owned company (PT PMA) requires a minimum investment plan of IDR 10,000,000,000, a registered address, and an NIB through the OSS system. Typical setup runs 4-6 weeks.",
					Details: map[string]interface{}{
						"entity_types":       []string{"PT PMA", "PT", "CV"},
						"min_investment_idr": 10000000000,
					},
					Confidence: 0.92,
					Sources:    []string{"BKPM Reg. 4/2021", "OSS guidelines"},
				},
				string(models.TopicLicensing): {
					Summary:    "Business licensing is risk-based: low-risk activities need only an NIB, higher-risk ones add standard certificates or operating licenses per KBLI code.",
					Confidence: 0.8,
					Sources:    []string{"GR 5/2021"},
				},
			},
			knowledgeEntry{
				Summary:    "Company formation, structure, and investment requirements vary by business activity; share the KBLI code for specifics.",
				Confidence: 0.6,
				Sources:    []string{"OSS guidelines"},
			}),

		NewTableProvider("licensing", models.TopicLicensing,
			map[string]knowledgeEntry{
				string(models.TopicLicensing): {
					Summary: "Restaurant operations need an NIB, a standard certificate for food service (KBLI 56101), and a hygiene certificate. Budget IDR 5,000,000-15,000,000 in fees and 2-4 weeks.",
					Details: map[string]interface{}{
						"kbli":          "56101",
						"fee_range_idr": []int{5000000, 15000000},
					},
					Confidence: 0.9,
					Sources:    []string{"OSS RBA", "MoH Reg. 14/2021"},
				},
			},
			knowledgeEntry{
				Summary:    "Permits and certifications depend on the KBLI risk class of the activity.",
				Confidence: 0.55,
				Sources:    []string{"OSS RBA"},
			}),

		NewTableProvider("tax", models.TopicTax,
			map[string]knowledgeEntry{
				string(models.TopicTax): {
					Summary:    "Companies register an NPWP, file monthly PPh 21/23/25 and PPN returns when VAT-registered, and an annual corporate return. Small enterprises may use the 0.5% final turnover rate.",
					Confidence: 0.88,
					Sources:    []string{"HPP Law 7/2021"},
				},
			},
			knowledgeEntry{
				Summary:    "Tax obligations depend on entity type and turnover; NPWP registration is the universal first step.",
				Confidence: 0.6,
				Sources:    []string{"DJP"},
			}),

		NewTableProvider("immigration", models.TopicImmigration,
			map[string]knowledgeEntry{
				string(models.TopicImmigration): {
					Summary:    "A working foreigner needs a KITAS sponsored by the employing company, preceded by RPTKA approval. Investor KITAS waives the work-permit fee for qualifying shareholders.",
					Confidence: 0.87,
					Sources:    []string{"MoM Reg. 8/2021", "Imigrasi"},
				},
			},
			knowledgeEntry{
				Summary:    "Stay permits range from visit visas to KITAS/KITAP; the right one depends on activity and sponsorship.",
				Confidence: 0.6,
				Sources:    []string{"Imigrasi"},
			}),

		NewTableProvider("legal", models.TopicLegal,
			map[string]knowledgeEntry{
				string(models.TopicLegal): {
					Summary:    "Commercial agreements should be bilingual with Indonesian prevailing, per Law 24/2009. Deeds of establishment and amendments require a notary.",
					Confidence: 0.85,
					Sources:    []string{"Law 24/2009", "Company Law 40/2007"},
				},
			},
			knowledgeEntry{
				Summary:    "Indonesian law governs locally executed agreements; notarization is required for corporate deeds.",
				Confidence: 0.6,
				Sources:    []string{"Company Law 40/2007"},
			}),

		NewTableProvider("property", models.TopicProperty,
			map[string]knowledgeEntry{
				string(models.TopicProperty): {
					Summary:    "Foreigners cannot hold freehold (Hak Milik); structures run through leasehold or Hak Pakai, and PT PMA entities may hold HGB. Verify zoning against the local RDTR before committing.",
					Confidence: 0.86,
					Sources:    []string{"Agrarian Law 5/1960", "GR 18/2021"},
				},
			},
			knowledgeEntry{
				Summary:    "Land titles available to foreign parties are limited; structure and zoning checks come first.",
				Confidence: 0.6,
				Sources:    []string{"ATR/BPN"},
			}),
	}
}

// normalizeQuery builds a cache key from raw query text
func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
