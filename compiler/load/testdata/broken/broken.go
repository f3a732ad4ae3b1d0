package broken

// +graphql:query=orphan
func Orphan(string) (string, error) {
	return "", nil
}
