package common

import "time"

// Environment variable keys
const (
	EnvConfigFile     = "CONFIG_FILE"
	EnvModelPath      = "MODEL_PATH"
	EnvModelVersion   = "MODEL_VERSION"
	EnvPort           = "PORT"
	EnvFeatureNames   = "FEATURE_NAMES"
	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvCacheSize      = "CACHE_SIZE"
	EnvDataPath       = "DATA_PATH"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
	EnvLogFile        = "LOG_FILE"
	EnvServerAddr     = "CUSTOM_LOCALHOST"
)

// Configuration defaults
const (
	DefaultModelPath      = "models/model.json"
	DefaultModelVersion   = "v1.0.0"
	DefaultPort           = 50051
	DefaultRequestTimeout = 3 * time.Second
	DefaultHealthTimeout  = 2 * time.Second
	DefaultCacheSize      = 0
	DefaultLogLevel       = "info"
	DefaultServerHost     = "localhost"
)

// Validation constants
const (
	MinPort           = 1
	MaxPort           = 65535
	MinRequestTimeout = 10 * time.Millisecond
	MaxRequestTimeout = time.Minute
	MaxCacheSize      = 1_000_000
)

// WineFeatureNames is the feature order of sklearn.datasets.load_wine, which the
// bundled model was trained on.
var WineFeatureNames = []string{
	"alcohol",
	"malic_acid",
	"ash",
	"alcalinity_of_ash",
	"magnesium",
	"total_phenols",
	"flavanoids",
	"nonflavanoid_phenols",
	"proanthocyanins",
	"color_intensity",
	"hue",
	"od280/od315_of_diluted_wines",
	"proline",
}

// ExampleWineSample is the first row of the wine dataset (class 0).
var ExampleWineSample = map[string]float64{
	"alcohol":                      14.23,
	"malic_acid":                   1.71,
	"ash":                          2.43,
	"alcalinity_of_ash":            15.6,
	"magnesium":                    127.0,
	"total_phenols":                2.8,
	"flavanoids":                   3.06,
	"nonflavanoid_phenols":         0.28,
	"proanthocyanins":              2.29,
	"color_intensity":              5.64,
	"hue":                          1.04,
	"od280/od315_of_diluted_wines": 3.92,
	"proline":                      1065.0,
}
