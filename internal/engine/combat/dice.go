package combat

import (
	"regexp"
	"strconv"

	"github.com/KirkDiggler/expedition-api/internal/errors"
)

// Regex for parsing simple dice notation like "2d6", "1d20", "3d8"
var diceNotationRegex = regexp.MustCompile(`^(\d+)d(\d+)$`)

// ParseDiceNotation parses simple dice notation like "2d6" and returns count
// and size
func ParseDiceNotation(notation string) (count, size int, err error) {
	matches := diceNotationRegex.FindStringSubmatch(notation)
	if len(matches) != 3 {
		return 0, 0, errors.InvalidArgumentf("invalid dice notation: %s (expected format: XdY)", notation)
	}

	count, err = strconv.Atoi(matches[1])
	if err != nil {
		return 0, 0, errors.InvalidArgumentf("invalid dice count in notation: %s", notation)
	}

	size, err = strconv.Atoi(matches[2])
	if err != nil {
		return 0, 0, errors.InvalidArgumentf("invalid die size in notation: %s", notation)
	}

	if count <= 0 || size <= 0 {
		return 0, 0, errors.InvalidArgumentf("dice count and size must be positive: %s", notation)
	}

	return count, size, nil
}
