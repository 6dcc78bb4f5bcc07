package provider

// ImageClass selects which image variant a path belongs to.
type ImageClass string

const (
	ImagePoster   ImageClass = "poster"
	ImageBackdrop ImageClass = "backdrop"
	ImageProfile  ImageClass = "profile"
)

// ImageSize selects a fixed resolution tier.
type ImageSize string

const (
	SizeSmall    ImageSize = "small"
	SizeMedium   ImageSize = "medium"
	SizeLarge    ImageSize = "large"
	SizeOriginal ImageSize = "original"
)

// sizeTokens maps image class and size to the provider's path token.
var sizeTokens = map[ImageClass]map[ImageSize]string{
	ImagePoster: {
		SizeSmall:    "w185",
		SizeMedium:   "w342",
		SizeLarge:    "w500",
		SizeOriginal: "original",
	},
	ImageBackdrop: {
		SizeSmall:    "w300",
		SizeMedium:   "w780",
		SizeLarge:    "w1280",
		SizeOriginal: "original",
	},
	ImageProfile: {
		SizeSmall:    "w185",
		SizeMedium:   "w342",
		SizeLarge:    "h632",
		SizeOriginal: "original",
	},
}

// ImageURL composes a relative image path into an absolute URL for the given
// class and size. Returns "" for an empty path.
func (c *Client) ImageURL(path string, class ImageClass, size ImageSize) string {
	if path == "" {
		return ""
	}
	token, ok := sizeTokens[class][size]
	if !ok {
		token = sizeTokens[class][SizeMedium]
	}
	return c.imageBaseURL + "/" + token + path
}
