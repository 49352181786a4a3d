package agent

import (
	"reflect"
	"testing"

	"github.com/concierge/concierge/internal/models"
)

func registryForTest() *StaticRegistry {
	providers := []Provider{
		&stubProvider{id: "business", topic: models.TopicBusinessSetup},
		&stubProvider{id: "licensing", topic: models.TopicLicensing},
		&stubProvider{id: "tax", topic: models.TopicTax},
		&stubProvider{id: "legal", topic: models.TopicLegal},
	}
	return NewStaticRegistry(providers, []string{"business", "legal"})
}

// TestSelectProvidersPrimary verifies table lookup for a classified topic
func TestSelectProvidersPrimary(t *testing.T) {
	r := registryForTest()

	got := r.SelectProviders(models.Intent{Primary: models.TopicBusinessSetup})
	want := []string{"business", "licensing", "tax"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SelectProviders = %v, want %v", got, want)
	}
}

// TestSelectProvidersDefaultSet verifies a query with no domain falls
// back to the broad default set rather than failing
func TestSelectProvidersDefaultSet(t *testing.T) {
	r := registryForTest()

	got := r.SelectProviders(models.Intent{})
	want := []string{"business", "legal"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SelectProviders = %v, want %v", got, want)
	}
}

// TestSelectProvidersSecondaryAppends verifies secondary topics add their
// lead provider without duplicates
func TestSelectProvidersSecondaryAppends(t *testing.T) {
	r := registryForTest()

	got := r.SelectProviders(models.Intent{
		Primary:   models.TopicTax,
		Secondary: []models.Topic{models.TopicLegal, models.TopicBusinessSetup},
	})
	// tax table is [tax, business]; legal appends, business is already in
	want := []string{"tax", "business", "legal"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SelectProviders = %v, want %v", got, want)
	}
}

// TestSelectProvidersTopicMatchJoins verifies a registered provider
// serving the primary topic is consulted even when the routing table does
// not name its ID
func TestSelectProvidersTopicMatchJoins(t *testing.T) {
	providers := []Provider{
		&stubProvider{id: "business", topic: models.TopicBusinessSetup},
		&stubProvider{id: "licensing", topic: models.TopicLicensing},
		&stubProvider{id: "tax", topic: models.TopicTax},
		&stubProvider{id: "legal", topic: models.TopicLegal},
		&stubProvider{id: "semantic", topic: models.TopicLegal},
	}
	r := NewStaticRegistry(providers, []string{"business", "legal"})

	got := r.SelectProviders(models.Intent{Primary: models.TopicLegal})
	want := []string{"legal", "business", "semantic"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SelectProviders = %v, want %v", got, want)
	}

	// Other topics do not pick up the extra provider
	got = r.SelectProviders(models.Intent{Primary: models.TopicTax})
	want = []string{"tax", "business"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SelectProviders = %v, want %v", got, want)
	}
}

// TestSelectProvidersFiltersUnregistered verifies IDs without a live
// provider are dropped from the selection
func TestSelectProvidersFiltersUnregistered(t *testing.T) {
	providers := []Provider{
		&stubProvider{id: "business", topic: models.TopicBusinessSetup},
	}
	r := NewStaticRegistry(providers, []string{"business", "legal"})

	got := r.SelectProviders(models.Intent{Primary: models.TopicBusinessSetup})
	want := []string{"business"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SelectProviders = %v, want %v", got, want)
	}
}
