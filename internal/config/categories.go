package config

// Category names shown in /help, in display order.
const (
	CategoryInformation = "🕯️ Information"
	CategoryPlayer      = "🎮 Player"
	CategoryServer      = "🧱 Server"
)

var CategoryWeights = map[string]int{
	CategoryInformation: 0,
	CategoryPlayer:      10,
	CategoryServer:      20,
}
