package config

const (
	defaultInputDir    = "~/.local/share/podpipe/input"
	defaultOutputDir   = "~/.local/share/podpipe/output"
	defaultPodcastsDir = "~/.local/share/podpipe/output/podcasts"
	defaultLogDir      = "~/.local/share/podpipe/logs"
	defaultStateDir    = "~/.local/share/podpipe/state"

	defaultYouTubeBaseURL           = "https://www.googleapis.com/youtube/v3"
	defaultYouTubeChannel           = "belovedsonsofgod"
	defaultYouTubeMaxResults        = 1000
	defaultYouTubeRequestsPerSecond = 5.0

	defaultMatchThreshold     = 70.0
	defaultPartThreshold      = 90.0
	defaultFileThreshold      = 90.0
	defaultWeightPartial      = 0.3
	defaultWeightTokenSet     = 0.4
	defaultWeightTokenSort    = 0.3
	defaultMatchWorkers       = 4
	defaultLLMBaseURL         = "https://api.groq.com/openai/v1/chat/completions"
	defaultLLMModel           = "mixtral-8x7b-32768"
	defaultLLMTimeoutSeconds  = 60
	defaultPodbeanBaseURL     = "https://api.podbean.com/v1"
	defaultPodbeanTimezone    = "America/Los_Angeles"
	defaultPodbeanPublishTime = "00:01"
	defaultPodbeanUserAgent   = "podpipe/dev"

	defaultYTDLPBinary         = "yt-dlp"
	defaultFFmpegBinary        = "ffmpeg"
	defaultSampleRate          = 44100
	defaultBitrate             = "128k"
	defaultChannels            = 1
	defaultLoudnessTarget      = -16.0
	defaultMaxRetries          = 3
	defaultRetryDelaySeconds   = 5
	defaultMinOutputBytes      = 1000
	defaultCutSeconds          = 4
	defaultCutBitrate          = "196k"
	defaultTranscodeSampleRate = 48000
	defaultTranscodeBitrate    = "256k"
	defaultAudioCommandTimeout = 3600
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with podpipe defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:    defaultInputDir,
			OutputDir:   defaultOutputDir,
			PodcastsDir: defaultPodcastsDir,
			LogDir:      defaultLogDir,
			StateDir:    defaultStateDir,
		},
		YouTube: YouTube{
			BaseURL:           defaultYouTubeBaseURL,
			Channel:           defaultYouTubeChannel,
			MaxResults:        defaultYouTubeMaxResults,
			RequestsPerSecond: defaultYouTubeRequestsPerSecond,
		},
		Matching: Matching{
			Threshold:       defaultMatchThreshold,
			PartThreshold:   defaultPartThreshold,
			FileThreshold:   defaultFileThreshold,
			WeightPartial:   defaultWeightPartial,
			WeightTokenSet:  defaultWeightTokenSet,
			WeightTokenSort: defaultWeightTokenSort,
			Workers:         defaultMatchWorkers,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Podbean: Podbean{
			BaseURL:     defaultPodbeanBaseURL,
			Timezone:    defaultPodbeanTimezone,
			PublishTime: defaultPodbeanPublishTime,
			UserAgent:   defaultPodbeanUserAgent,
		},
		Audio: Audio{
			YTDLPBinary:         defaultYTDLPBinary,
			FFmpegBinary:        defaultFFmpegBinary,
			SampleRate:          defaultSampleRate,
			Bitrate:             defaultBitrate,
			Channels:            defaultChannels,
			LoudnessTarget:      defaultLoudnessTarget,
			MaxRetries:          defaultMaxRetries,
			RetryDelaySeconds:   defaultRetryDelaySeconds,
			MinOutputBytes:      defaultMinOutputBytes,
			CutSeconds:          defaultCutSeconds,
			CutBitrate:          defaultCutBitrate,
			TranscodeSampleRate: defaultTranscodeSampleRate,
			TranscodeBitrate:    defaultTranscodeBitrate,
			CommandTimeout:      defaultAudioCommandTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
