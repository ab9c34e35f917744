package utils

func StringOrDefault(str, defaultValue string) string {
	if str != "" {
		return str
	}

	return defaultValue
}

// FirstNonEmpty returns the first value that is not the empty string.
func FirstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}
