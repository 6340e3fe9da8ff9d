package config

// NewCatalogForTest creates a Catalog config for testing purposes
func NewCatalogForTest(path string) *Catalog {
	return &Catalog{path: path}
}

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, channelID, signingSecret string) *Slack {
	return &Slack{
		botToken:      botToken,
		channelID:     channelID,
		signingSecret: signingSecret,
	}
}
