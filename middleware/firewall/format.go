package firewall

import "strconv"

// formatSeconds formata uma duração em segundos inteiros (Retry-After).
func formatSeconds(sec float64) string { return strconv.Itoa(int(sec)) }
