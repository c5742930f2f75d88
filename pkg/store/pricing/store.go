package pricing

const (
	// DefaultHourlyRate is charged for instance classes missing from the table.
	DefaultHourlyRate = 0.05
	// DefaultVolumeRatePerGB is the monthly price of one GB of block storage.
	DefaultVolumeRatePerGB = 0.10
)

// Mock prices - in production, use the AWS Price List API
var defaultInstanceRates = map[string]float64{
	"t2.micro":   0.0116,
	"t2.small":   0.023,
	"t2.medium":  0.0464,
	"t3.micro":   0.0104,
	"t3.small":   0.0208,
	"t3.medium":  0.0416,
	"m5.large":   0.096,
	"m5.xlarge":  0.192,
	"m5.2xlarge": 0.384,
	"r5.large":   0.126,
	"r5.xlarge":  0.252,
	"r5.2xlarge": 0.504,
}

type Store interface {
	InstanceHourlyRate(instanceClass string) float64
	VolumeMonthlyRatePerGB() float64
}

type Settings struct {
	// InstanceHourly overrides or extends the built-in class table.
	InstanceHourly  map[string]float64
	DefaultHourly   float64
	VolumeGBMonthly float64
}

type pricingStore struct {
	rates       map[string]float64
	fallback    float64
	volumePerGB float64
}

func NewStore(settings Settings) Store {
	rates := make(map[string]float64, len(defaultInstanceRates)+len(settings.InstanceHourly))
	for class, rate := range defaultInstanceRates {
		rates[class] = rate
	}
	for class, rate := range settings.InstanceHourly {
		rates[class] = rate
	}

	fallback := settings.DefaultHourly
	if fallback <= 0 {
		fallback = DefaultHourlyRate
	}
	volumePerGB := settings.VolumeGBMonthly
	if volumePerGB <= 0 {
		volumePerGB = DefaultVolumeRatePerGB
	}

	return &pricingStore{
		rates:       rates,
		fallback:    fallback,
		volumePerGB: volumePerGB,
	}
}

// NewDefaultStore returns the built-in price table.
func NewDefaultStore() Store {
	return NewStore(Settings{})
}

func (p *pricingStore) InstanceHourlyRate(instanceClass string) float64 {
	if rate, ok := p.rates[instanceClass]; ok {
		return rate
	}
	return p.fallback
}

func (p *pricingStore) VolumeMonthlyRatePerGB() float64 {
	return p.volumePerGB
}
