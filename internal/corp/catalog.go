package corp

// Static acquisition catalog. Read-only input; the negotiation engine
// never mutates an entry.
type targetSpec struct {
	Name               string
	Category           string
	MarketCapMicros    int64
	Premium            float64
	Synergy            float64
	Sentiment          BoardSentiment
	AnnualProfitMicros int64
}

var targetCatalog = []targetSpec{
	{Name: "Nimbus Logistics", Category: "transport", MarketCapMicros: 4_200_000 * MicrosPerCoin, Premium: 1.15, Synergy: 72, Sentiment: SentimentNeutral, AnnualProfitMicros: 380_000 * MicrosPerCoin},
	{Name: "Vectra Analytics", Category: "software", MarketCapMicros: 8_500_000 * MicrosPerCoin, Premium: 1.35, Synergy: 88, Sentiment: SentimentSupportive, AnnualProfitMicros: 910_000 * MicrosPerCoin},
	{Name: "Pylon Foundries", Category: "industrial", MarketCapMicros: 2_800_000 * MicrosPerCoin, Premium: 1.10, Synergy: 45, Sentiment: SentimentCautious, AnnualProfitMicros: 190_000 * MicrosPerCoin},
	{Name: "Lumina Health Labs", Category: "biotech", MarketCapMicros: 12_000_000 * MicrosPerCoin, Premium: 1.50, Synergy: 64, Sentiment: SentimentSkeptical, AnnualProfitMicros: 650_000 * MicrosPerCoin},
	{Name: "Orbitz Media Group", Category: "media", MarketCapMicros: 5_600_000 * MicrosPerCoin, Premium: 1.25, Synergy: 35, Sentiment: SentimentHostile, AnnualProfitMicros: -120_000 * MicrosPerCoin},
	{Name: "Datum Grid Energy", Category: "energy", MarketCapMicros: 9_400_000 * MicrosPerCoin, Premium: 1.20, Synergy: 58, Sentiment: SentimentNeutral, AnnualProfitMicros: 720_000 * MicrosPerCoin},
	{Name: "Arcane Capital Partners", Category: "finance", MarketCapMicros: 15_500_000 * MicrosPerCoin, Premium: 1.40, Synergy: 82, Sentiment: SentimentCautious, AnnualProfitMicros: 1_400_000 * MicrosPerCoin},
	{Name: "Zenith Retail Co", Category: "retail", MarketCapMicros: 3_300_000 * MicrosPerCoin, Premium: 1.05, Synergy: 30, Sentiment: SentimentNeutral, AnnualProfitMicros: 150_000 * MicrosPerCoin},
	{Name: "Fusion Microsystems", Category: "hardware", MarketCapMicros: 7_100_000 * MicrosPerCoin, Premium: 1.30, Synergy: 91, Sentiment: SentimentSupportive, AnnualProfitMicros: 540_000 * MicrosPerCoin},
	{Name: "Cybron Secure", Category: "security", MarketCapMicros: 6_200_000 * MicrosPerCoin, Premium: 1.28, Synergy: 76, Sentiment: SentimentSkeptical, AnnualProfitMicros: 470_000 * MicrosPerCoin},
}

// Founding co-owner roster seeded next to the player. Percentages plus
// the player's starting stake and the open-market float sum to 100.
type founderSpec struct {
	Name         string
	Percentage   float64
	Relationship int
	Bio          string
}

const (
	StarterPlayerStakePct = 58.0
	StarterFloatPct       = 18.0
	StarterCashMicros     = int64(150_000) * MicrosPerCoin
	StarterReputation     = 50
)

var founderRoster = []founderSpec{
	{Name: "Maya Vale", Percentage: 8.0, Relationship: 74, Bio: "Co-founder, ran operations through the garage years."},
	{Name: "Arun Pike", Percentage: 6.5, Relationship: 58, Bio: "Seed investor, sits on three other boards."},
	{Name: "Iris Moss", Percentage: 4.5, Relationship: 41, Bio: "Former CTO, left on uneasy terms."},
	{Name: "Noah Kent", Percentage: 3.0, Relationship: 66, Bio: "Angel investor, rarely attends meetings."},
	{Name: "Tara Cho", Percentage: 2.0, Relationship: 83, Bio: "Early employee, holds options converted at the B round."},
}

// OpenMarketName labels the float holder absorbing dilution issuance and
// surrendering stake during buybacks.
const OpenMarketName = "Open Market"
