package mqtt

import "strings"

// Topic prefixes.
const (
	// TopicPrefix is the root of every Terrain Web topic.
	TopicPrefix = "terrainweb"

	// TopicPrefixSystem is the base for service status topics.
	TopicPrefixSystem = TopicPrefix + "/system"

	// TopicPrefixLaunch is the base for page launch events.
	TopicPrefixLaunch = TopicPrefix + "/launch"
)

// Topics provides builders for Terrain Web MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.Launch("terrain") // "terrainweb/launch/terrain"
type Topics struct{}

// SystemStatus returns the retained online/offline status topic.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// Launch returns the topic for launch events of one page.
// MQTT wildcard and separator characters in pageID are replaced with '_'.
func (Topics) Launch(pageID string) string {
	return TopicPrefixLaunch + "/" + topicSegment(pageID)
}

// AllLaunches matches launch events for every page.
func (Topics) AllLaunches() string {
	return TopicPrefixLaunch + "/+"
}

// topicSegment makes s safe to use as a single topic level.
func topicSegment(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#', 0:
			return '_'
		}
		return r
	}, s)
}
