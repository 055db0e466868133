package pipeline

// OriginPolicy decides the Access-Control-Allow-Origin value for a response.
// A nil allow-list means no restriction is configured.
type OriginPolicy struct {
	AllowedOrigins []string
}

// Allow returns the permitted cross-origin value for the declared request
// origin. With no allow-list configured, or with an allow-list but no origin
// declared, it returns the wildcard. A listed origin is echoed back. An
// unlisted origin receives the literal string "null", which browsers treat
// as blocking; the literal is preserved exactly.
func (p OriginPolicy) Allow(origin string) string {
	if len(p.AllowedOrigins) == 0 {
		return "*"
	}
	if origin == "" {
		return "*"
	}
	for _, allowed := range p.AllowedOrigins {
		if allowed == origin {
			return origin
		}
	}
	return "null"
}
