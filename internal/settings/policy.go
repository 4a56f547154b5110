// Package settings loads the pipeline's immutable policy document: a
// nested YAML structure with dotted-path environment overrides,
// generalized from the teacher's flag-plus-env Load() pattern
// (internal/gateway/config/config.go) to the much larger parameter
// surface this pipeline's stages require.
package settings

import (
	"time"

	"taxonomy/internal/kernel"
)

// LabelPolicy mirrors kernel.LabelPolicy's shape in YAML-friendly form;
// ToKernel converts it at call sites that need the kernel's own type.
type LabelPolicy struct {
	BoilerplatePatterns      []string `yaml:"boilerplate_patterns"`
	FoldDiacritics           bool     `yaml:"fold_diacritics"`
	RemovePunctuation        bool     `yaml:"remove_punctuation"`
	CollapseWhitespace       bool     `yaml:"collapse_whitespace"`
	Lowercase                bool     `yaml:"lowercase"`
	IncludeAmbiguousAcronyms bool     `yaml:"include_ambiguous_acronyms"`
	MinCanonicalLength       int      `yaml:"min_canonical_length"`
	MaxCanonicalLength       int      `yaml:"max_canonical_length"`
}

// ToKernel converts to kernel.LabelPolicy, the shape the normalization
// and similarity primitives actually consume.
func (p LabelPolicy) ToKernel() kernel.LabelPolicy {
	return kernel.LabelPolicy{
		BoilerplatePatterns:      p.BoilerplatePatterns,
		FoldDiacritics:           p.FoldDiacritics,
		RemovePunctuation:        p.RemovePunctuation,
		CollapseWhitespace:       p.CollapseWhitespace,
		Lowercase:                p.Lowercase,
		IncludeAmbiguousAcronyms: p.IncludeAmbiguousAcronyms,
		MinCanonicalLength:       p.MinCanonicalLength,
		MaxCanonicalLength:       p.MaxCanonicalLength,
	}
}

// S0Policy configures raw extraction (spec §4.D).
type S0Policy struct {
	TargetLanguage            string   `yaml:"target_language"`
	LanguageConfidenceMin     float64  `yaml:"language_confidence_min"`
	RequireLanguageConfidence bool     `yaml:"require_language_confidence"`
	DetectSections            bool     `yaml:"detect_sections"`
	SegmentOnHeaders          bool     `yaml:"segment_on_headers"`
	SegmentOnLists            bool     `yaml:"segment_on_lists"`
	SegmentOnTables           bool     `yaml:"segment_on_tables"`
	HeaderPatterns            []string `yaml:"header_patterns"`
	ListMarkers               []string `yaml:"list_markers"`
	RemoveBoilerplate         bool     `yaml:"remove_boilerplate"`
	BoilerplatePatterns       []string `yaml:"boilerplate_patterns"`
	MinChars                  int      `yaml:"min_chars"`
	MaxChars                  int      `yaml:"max_chars"`
	IntraPageDedupEnabled     bool     `yaml:"intra_page_dedup_enabled"`
	SimilarityThreshold       float64  `yaml:"similarity_threshold"`
	SimilarityMethod          string   `yaml:"similarity_method"` // jaccard | shingle | minhash
	PreserveListStructure     bool     `yaml:"preserve_list_structure"`
	UseHTMLSegmentation       bool     `yaml:"use_html_segmentation"`
}

// S1Policy configures LLM-assisted extraction (spec §4.E).
type S1Policy struct {
	MaxRetries            int     `yaml:"max_retries"`
	ParentSimilarityCutoff float64 `yaml:"parent_similarity_cutoff"`
}

// S2Policy configures frequency filtering (spec §4.F).
type S2Policy struct {
	InstitutionRule     string           `yaml:"institution_rule"` // prefer-campus | prefer-system | merge
	MinPrefixLength     int              `yaml:"min_prefix_length"`
	StripNumericSuffix  bool             `yaml:"strip_numeric_suffix"`
	Delimiters          []string         `yaml:"delimiters"`
	MinInstitutionsByLevel map[int]int   `yaml:"min_institutions_by_level"`
	MinSrcCountByLevel     map[int]int   `yaml:"min_src_count_by_level"`
}

// S3Policy configures single-token verification (spec §4.G).
type S3Policy struct {
	HyphenatedCompoundsAllowed bool           `yaml:"hyphenated_compounds_allowed"`
	MaxTokensPerLevel          map[int]int    `yaml:"max_tokens_per_level"`
	ForbiddenPunctuation       string         `yaml:"forbidden_punctuation"`
	MinLength                  int            `yaml:"min_length"`
	MaxLength                  int            `yaml:"max_length"`
	MinAlnumRatio              float64        `yaml:"min_alnum_ratio"`
	VenueKeywordsForbiddenAtL3 bool           `yaml:"venue_keywords_forbidden_at_l3"`
	VenueKeywords              []string       `yaml:"venue_keywords"`
	Allowlist                  []string       `yaml:"allowlist"`
	PreferRuleOverLLM          bool           `yaml:"prefer_rule_over_llm"`
}

// DedupPolicy configures deduplication (spec §4.H).
type DedupPolicy struct {
	PrefixLength              int     `yaml:"prefix_length"`
	PhoneticBlockingEnabled    bool    `yaml:"phonetic_blocking_enabled"`
	MaxBlockSize               int     `yaml:"max_block_size"`
	MaxComparisonsPerBlock      int     `yaml:"max_comparisons_per_block"`
	PhoneticProbeThreshold      float64 `yaml:"phonetic_probe_threshold"`
	AbbrevScoreWeight           float64 `yaml:"abbrev_score_weight"`
	JaroWinklerWeight           float64 `yaml:"jaro_winkler_weight"`
	TokenJaccardWeight          float64 `yaml:"token_jaccard_weight"`
	SuffixPrefixSuffixes        []string `yaml:"suffix_prefix_suffixes"`
	L0L1Threshold               float64 `yaml:"l0_l1_threshold"`
	L2L3Threshold               float64 `yaml:"l2_l3_threshold"`
	MinSimilarityThreshold      float64 `yaml:"min_similarity_threshold"`
	CrossParentMergeAllowed     bool    `yaml:"cross_parent_merge_allowed"`
	MergePolicy                 string  `yaml:"merge_policy"`
}

// DisambigPolicy configures disambiguation (spec §4.I).
type DisambigPolicy struct {
	RequireDistinctParentLineages bool    `yaml:"require_distinct_parent_lineages"`
	ParentWeight                   float64 `yaml:"parent_weight"`
	ContextWeight                  float64 `yaml:"context_weight"`
	InstitutionWeight              float64 `yaml:"institution_weight"`
	ScoreThreshold                 float64 `yaml:"score_threshold"`
	ContextWindowSize              int     `yaml:"context_window_size"`
	MaxContextsForPrompt           int     `yaml:"max_contexts_for_prompt"`
	MinEvidenceStrength            float64 `yaml:"min_evidence_strength"`
}

// ValidationPolicy configures rule/web/LLM validation (spec §4.J).
type ValidationPolicy struct {
	ForbiddenPatterns       []string          `yaml:"forbidden_patterns"`
	RequiredVocabByLevel    map[int][]string  `yaml:"required_vocab_by_level"`
	VenuePatterns           []string          `yaml:"venue_patterns"`
	VenueDetectionHard      bool              `yaml:"venue_detection_hard"`
	SnippetMaxLength        int               `yaml:"snippet_max_length"`
	MaxSnippetsPerConcept   int               `yaml:"max_snippets_per_concept"`
	MinSnippetMatches       int               `yaml:"min_snippet_matches"`
	AuthoritativeDomains    []string          `yaml:"authoritative_domains"`
	RetrievalTimeout        time.Duration     `yaml:"retrieval_timeout"`
	LLMValidationEnabled    bool              `yaml:"llm_validation_enabled"`
	MaxEvidenceTokens       int               `yaml:"max_evidence_tokens"`
	RuleWeight              float64           `yaml:"rule_weight"`
	WebWeight                float64           `yaml:"web_weight"`
	LLMWeight                float64           `yaml:"llm_weight"`
	HardRuleFailureBlocks   bool              `yaml:"hard_rule_failure_blocks"`
	TieBreakConservative    bool              `yaml:"tie_break_conservative"`
	TieBreakMinStrength     float64           `yaml:"tie_break_min_strength"`
}

// HierarchyPolicy configures graph assembly (spec §4.K).
type HierarchyPolicy struct {
	MaxGraphSize               int      `yaml:"max_graph_size"`
	StrictLevelEnforcement      bool     `yaml:"strict_level_enforcement"`
	AllowLevelShortcuts         bool     `yaml:"allow_level_shortcuts"`
	EnforceUniquePaths           bool     `yaml:"enforce_unique_paths"`
	AllowMultiParentExceptions   []string `yaml:"allow_multi_parent_exceptions"`
	OrphanPolicy                 string   `yaml:"orphan_policy"` // drop | quarantine | attach_placeholder
}

// OrchestrationPolicy configures the 5-phase driver (spec §4.L).
type OrchestrationPolicy struct {
	MaxPostProcessingIterations int           `yaml:"max_post_processing_iterations"`
	CheckpointDir                string        `yaml:"checkpoint_dir"`
	KeepLatestNCheckpoints       int           `yaml:"keep_latest_n_checkpoints"`
	CheckpointGracePeriod        time.Duration `yaml:"checkpoint_grace_period"`
}

// LLMPolicy configures deterministic generation defaults and gateway
// resilience behavior (spec §4.M).
type LLMPolicy struct {
	Provider             string        `yaml:"provider"` // gemini | anthropic
	Model                string        `yaml:"model"`
	Temperature          float64       `yaml:"temperature"`
	Seed                 int64         `yaml:"seed"`
	TopP                 float64       `yaml:"top_p"`
	MaxTokens            int           `yaml:"max_tokens"`
	CallTimeout          time.Duration `yaml:"call_timeout"`
	RetryAttempts        int           `yaml:"retry_attempts"`
	RetryBaseDelay       time.Duration `yaml:"retry_base_delay"`
	RetryMaxDelay        time.Duration `yaml:"retry_max_delay"`
	QuarantineAfterAttempts int        `yaml:"quarantine_after_attempts"`
	RateLimitRPS         float64       `yaml:"rate_limit_rps"`
	RateLimitBurst       int           `yaml:"rate_limit_burst"`
	CircuitBreakerMaxFailures uint32   `yaml:"circuit_breaker_max_failures"`
}

// ObservabilityPolicy configures the cross-cutting fabric (spec §4.C).
type ObservabilityPolicy struct {
	SamplingRate       float64 `yaml:"sampling_rate"`
	MaxSamplesPerPhase int     `yaml:"max_samples_per_phase"`
	MaxQuarantineItems int     `yaml:"max_quarantine_items"`
	Seed               int64   `yaml:"seed"`
}

// Policy is the full, immutable configuration document consumed by
// every pipeline stage.
type Policy struct {
	Version       string              `yaml:"version"`
	Label         LabelPolicy         `yaml:"label"`
	S0            S0Policy            `yaml:"s0"`
	S1            S1Policy            `yaml:"s1"`
	S2            S2Policy            `yaml:"s2"`
	S3            S3Policy            `yaml:"s3"`
	Dedup         DedupPolicy         `yaml:"dedup"`
	Disambig      DisambigPolicy      `yaml:"disambig"`
	Validation    ValidationPolicy    `yaml:"validation"`
	Hierarchy     HierarchyPolicy     `yaml:"hierarchy"`
	Orchestration OrchestrationPolicy `yaml:"orchestration"`
	LLM           LLMPolicy           `yaml:"llm"`
	Observability ObservabilityPolicy `yaml:"observability"`
}

// DefaultPolicy returns the conservative baseline policy used when no
// YAML document is supplied, mirroring spec defaults named throughout
// §4.
func DefaultPolicy() Policy {
	return Policy{
		Version: "v1",
		Label: LabelPolicy{
			FoldDiacritics:     true,
			RemovePunctuation:  true,
			CollapseWhitespace: true,
			Lowercase:          true,
			MinCanonicalLength: 1,
			MaxCanonicalLength: 200,
		},
		S0: S0Policy{
			LanguageConfidenceMin:     0.5,
			RequireLanguageConfidence: true,
			DetectSections:            true,
			SegmentOnHeaders:          true,
			SegmentOnLists:            true,
			SegmentOnTables:           true,
			HeaderPatterns:            []string{`^(chapter|section|part)\s+\d+`, `^\d+(\.\d+)*\s+[A-Z]`},
			RemoveBoilerplate:         true,
			BoilerplatePatterns: []string{
				`(?i)all rights reserved`,
				`(?i)cookie policy`,
				`(?i)skip to (main )?content`,
				`(?i)^©\s*\d{4}`,
			},
			MinChars:              3,
			MaxChars:              4000,
			IntraPageDedupEnabled: true,
			SimilarityThreshold:   0.95,
			SimilarityMethod:      "shingle",
		},
		S1: S1Policy{
			MaxRetries:             2,
			ParentSimilarityCutoff: 0.6,
		},
		S2: S2Policy{
			InstitutionRule:    "prefer-campus",
			MinPrefixLength:    6,
			StripNumericSuffix: true,
			Delimiters:         []string{"::", "#", "@"},
			MinInstitutionsByLevel: map[int]int{0: 1, 1: 1, 2: 1, 3: 1},
			MinSrcCountByLevel:     map[int]int{0: 1, 1: 1, 2: 1, 3: 1},
		},
		S3: S3Policy{
			MaxTokensPerLevel:          map[int]int{0: 6, 1: 6, 2: 6, 3: 8},
			ForbiddenPunctuation:       "!@#$%^*()[]{}<>/\\|~`",
			MinLength:                 2,
			MaxLength:                 100,
			MinAlnumRatio:             0.7,
			VenueKeywordsForbiddenAtL3: true,
			VenueKeywords:              []string{"conference", "symposium", "workshop", "proceedings", "transactions", "journal"},
			PreferRuleOverLLM:          true,
		},
		Dedup: DedupPolicy{
			PrefixLength:            4,
			PhoneticBlockingEnabled: true,
			MaxBlockSize:            200,
			MaxComparisonsPerBlock:  20000,
			PhoneticProbeThreshold:  0.75,
			AbbrevScoreWeight:       1.0,
			JaroWinklerWeight:       0.8,
			TokenJaccardWeight:      0.9,
			L0L1Threshold:           0.88,
			L2L3Threshold:           0.82,
			MinSimilarityThreshold:  0.8,
			MergePolicy:             "highest_support_wins",
		},
		Disambig: DisambigPolicy{
			ParentWeight:          0.4,
			ContextWeight:         0.35,
			InstitutionWeight:     0.25,
			ScoreThreshold:        0.3,
			ContextWindowSize:     20,
			MaxContextsForPrompt:  5,
			MinEvidenceStrength:   0.6,
		},
		Validation: ValidationPolicy{
			SnippetMaxLength:      240,
			MaxSnippetsPerConcept: 5,
			MinSnippetMatches:     1,
			RetrievalTimeout:      5 * time.Second,
			LLMValidationEnabled:  true,
			MaxEvidenceTokens:     2000,
			RuleWeight:            0.3,
			WebWeight:             0.2,
			LLMWeight:             0.5,
			HardRuleFailureBlocks: true,
			TieBreakConservative:  true,
			TieBreakMinStrength:   0.6,
		},
		Hierarchy: HierarchyPolicy{
			MaxGraphSize:           200000,
			StrictLevelEnforcement: true,
			EnforceUniquePaths:     true,
			OrphanPolicy:           "attach_placeholder",
		},
		Orchestration: OrchestrationPolicy{
			MaxPostProcessingIterations: 5,
			CheckpointDir:               "checkpoints",
			KeepLatestNCheckpoints:      10,
			CheckpointGracePeriod:       10 * time.Minute,
		},
		LLM: LLMPolicy{
			Provider:                "gemini",
			Model:                   "gemini-2.0-flash",
			Temperature:             0,
			Seed:                    42,
			TopP:                    1,
			MaxTokens:               4096,
			CallTimeout:             30 * time.Second,
			RetryAttempts:           3,
			RetryBaseDelay:          500 * time.Millisecond,
			RetryMaxDelay:           8 * time.Second,
			QuarantineAfterAttempts: 3,
			RateLimitRPS:            2,
			RateLimitBurst:          4,
			CircuitBreakerMaxFailures: 5,
		},
		Observability: ObservabilityPolicy{
			SamplingRate:       0.1,
			MaxSamplesPerPhase: 100,
			MaxQuarantineItems: 1000,
			Seed:               42,
		},
	}
}
