package entities

import "fmt"

// Defaults shown before the admin customizes the raffle.
const (
	DefaultPrizeName = "PIX DA SORTE $500 OU CAPACETE ZERO"

	DefaultDescription = ` 🏁 PIX DE R$ 500 OU CAPACETE ZERO: QUAL VAI SER? 🏁

O mês está acabando, mas a sua sorte está só começando! Participar da nossa rifa é simples, barato e pode te render um prêmio sensacional. 🤩

✨ O QUE ESTÁ EM JOGO:
1️⃣ R$ 500,00 NO PIX (Dinheiro na mão, sem burocracia!)
2️⃣ OU UM CAPACETE ZERO (Novinho, direto para você!)

📊 **NÚMEROS DA SORTE:
Temos 1 milhão de bilhetes disponíveis. É o "Rifão do Milhão"! Escolha seus números favoritos e entre na disputa.

⚠️ **REGRAS DO JOGO:**
Sorteio realizado pela Federal no último dia do mês. É seguro, é justo, é a sua chance! 🏦✨`

	// FallbackDescription is used when the description generator is
	// unavailable.
	FallbackDescription = "Participe da nossa grande rifa e concorra a prêmios incríveis! Milhares de chances de ganhar."
)

// PrizeInfo describes the prize being raffled. The image is either a URL or
// a base64 data URI, as provided by the admin or the image generator.
type PrizeInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageData   string `json:"image_data,omitempty"`
}

// DefaultPrizeInfo returns the prize shown before any admin configuration.
func DefaultPrizeInfo() PrizeInfo {
	return PrizeInfo{
		Name:        DefaultPrizeName,
		Description: DefaultDescription,
	}
}

// FormatNumber renders a raffle number the way tickets display it,
// zero-padded to six digits.
func FormatNumber(n int64) string {
	return fmt.Sprintf("%06d", n)
}
