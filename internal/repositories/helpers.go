package repositories

// isDuplicateKeyError reports whether err looks like a unique-constraint
// violation from any of the backends the observation and patient stores
// run against (sqlite in tests, MySQL in production).
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	errMsg := err.Error()
	return contains(errMsg, "duplicate key") ||
		contains(errMsg, "UNIQUE constraint") ||
		contains(errMsg, "Duplicate entry") ||
		contains(errMsg, "duplicate value")
}

// contains reports whether str contains substr, case-insensitively.
func contains(str, substr string) bool {
	return len(str) >= len(substr) &&
		(str == substr ||
			len(str) > len(substr) &&
				(containsAt(str, substr, 0) || contains(str[1:], substr)))
}

// containsAt reports whether str contains substr starting at pos.
func containsAt(str, substr string, pos int) bool {
	if pos < 0 || pos > len(str)-len(substr) {
		return false
	}
	for i := 0; i < len(substr); i++ {
		if toLower(str[pos+i]) != toLower(substr[i]) {
			return false
		}
	}
	return true
}

// toLower converts a byte to lowercase.
func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
