package csvsync

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Source is one remote CSV file and where it lands locally
type Source struct {
	Category    string // calcio, basket, football
	Competition string // odds provider key, or "drive"
	URL         string
	FileName    string // local name without the competition prefix
}

// LocalName is <competition>_<filename>, or the bare filename for Drive files
func (s Source) LocalName() string {
	if s.Competition == "" || s.Competition == driveCompetition {
		return s.FileName
	}
	return s.Competition + "_" + s.FileName
}

const (
	footballDataBase = "https://www.football-data.co.uk/mmz4281"
	driveDownloadURL = "https://drive.google.com/uc?export=download&id="
	driveCompetition = "drive"
)

// DefaultSeasons are the football-data.co.uk season folders fetched by default
var DefaultSeasons = []string{"2425", "2526"}

// footballDataCodes maps competition keys to football-data.co.uk file codes
var footballDataCodes = map[string]string{
	"soccer_italy_serie_a":          "I1",
	"soccer_italy_serie_b":          "I2",
	"soccer_spain_la_liga":          "SP1",
	"soccer_spain_segunda_division": "SP2",
	"soccer_epl":                    "E0",
	"soccer_efl_champ":              "E1",
	"soccer_germany_bundesliga":     "D1",
	"soccer_germany_bundesliga2":    "D2",
	"soccer_france_ligue_one":       "F1",
	"soccer_france_ligue_two":       "F2",
	"soccer_uefa_champs_league":     "EC",
	"soccer_uefa_europa_league":     "EU",
}

var staticSources = map[string][]string{
	"basketball_nba": {
		"https://github.com/NocturneBear/NBA-Data-2010-2024/raw/main/regular_season_box_scores_2010_2024_part_1.csv",
		"https://github.com/NocturneBear/NBA-Data-2010-2024/raw/main/regular_season_box_scores_2010_2024_part_2.csv",
		"https://github.com/NocturneBear/NBA-Data-2010-2024/raw/main/regular_season_totals_2010_2024.csv",
	},
	"americanfootball_nfl": {
		"https://github.com/nflverse/nflverse-data/raw/master/games.csv.gz",
	},
	"americanfootball_ncaaf": {
		"https://github.com/nflverse/nflverse-data/raw/master/college_games.csv.gz",
	},
}

// driveFiles are shared Google Drive exports per category
var driveFiles = map[string][]string{
	"calcio": {
		"1IwH4OWw8K7d6lA6L_yOHDv0sPWzAjB7R", "1OvFQSfS818GvIrE668IceV2BxWpUwpPH",
		"1nuA3X9RR8nmHCiIJgHtYBNXSBfh5JVpz", "1Mu5mHX1iZ6DDty4yOsPBhYDBG4IV8tBo",
		"101leVcEblRX6SIZQ9IPYt3gBftfdTfU6", "1ZuKPIIPCH9aqwX80CpDb0-KGVcylYlRy",
		"1DCElGIAfJmpKcCWU6i2vcuCPs1No5orq", "1Wu9IG7QdmunqUw0duHVgCzzLlMXhSLE5",
		"18-IzszXSMuTehzogMXzCpEtXY4MX-3y7", "1rzjuCvl1FCY81BdUiFycC0doRUHtjjLR",
		"1wEjlzWU9e_B9VVtQQTXzRP9hXu7C_4SH", "1fjVYftn8Wzq5wVsgD1-9I3b1x8JsOhqK",
		"1UjdjPAGJYZvqGchWlrb3DWbBNl_eHuxN", "1c1WEcoUiGnvfs34Fs8EQQlwlHsNPnoTA",
		"10LQ4_jPdt3NG42MGPUbrRygmMXXChRvo", "1INKdlNQxnoyDuNhMIYwAe0LA1SxveDcC",
		"109b1Cw9xPCND3gDGBHElegMp6ky5Uk_h", "1Cv0zrXxbEV7pVT4tT2dMBaFwD4fKuiIT",
		"1f9jKgs5DcvUES_9KdaYdqyCP-L-7hNdS", "1MHk4DTUw2rzhCZMDFB7yCLwOc1HWHFmR",
		"1FN39YP3RwZsrgxC7n-Jlp5C9Yv6i-Zh_", "1x0nZkpMHAainZQsBgxsyjRghOgDfltIg",
		"1JE4DO2DH1dmE_N9zxKKkTFTUuWUyVMBV", "1UCba1YBdJknDRQQTmjrsy3nmZIRxT87_",
	},
	"basket": {
		"1jW1s1ZsMPG9nqRSv7eMncSeYxGl7zaJ1", "17AbS759AvEYGqgHOZv1legV4cDi-eMfL",
		"1pag9i3by7rLo-4uq9VV2BkuDXzQA-cf3", "1ksnBEN0qVnJnkTsmw6c5aNM2Ijhp4TGh",
	},
	"football": {
		"1M49rGXflx9jX5PnDP87JvI145f2lNEuU", "1DFDw8u6jtr-y9bTD2vqcZdw7Itn_gBeU",
		"1E0pqvpIx6PEX5MYNBcwVmQl1YwoSrFmb", "1_YyLl3lE5AcfLHJ6YXRP23SZrE7ei5GO",
	},
}

// CategoryFor maps a competition key to its history folder
func CategoryFor(competition string) string {
	switch {
	case strings.HasPrefix(competition, "soccer_"):
		return "calcio"
	case strings.HasPrefix(competition, "basketball_"):
		return "basket"
	case strings.HasPrefix(competition, "americanfootball_"):
		return "football"
	}
	return "misc"
}

// DefaultSources lists every known source. Football-data files carry the
// season in their local name so seasons do not overwrite each other.
func DefaultSources(seasons []string, includeDrive bool) []Source {
	if len(seasons) == 0 {
		seasons = DefaultSeasons
	}

	var sources []Source
	for _, comp := range sortedKeys(footballDataCodes) {
		code := footballDataCodes[comp]
		for _, season := range seasons {
			sources = append(sources, Source{
				Category:    CategoryFor(comp),
				Competition: comp,
				URL:         footballDataBase + "/" + season + "/" + code + ".csv",
				FileName:    season + "_" + code + ".csv",
			})
		}
	}

	for _, comp := range sortedKeys(staticSources) {
		for _, u := range staticSources[comp] {
			sources = append(sources, Source{
				Category:    CategoryFor(comp),
				Competition: comp,
				URL:         u,
				FileName:    fileNameFromURL(u),
			})
		}
	}

	if includeDrive {
		for _, category := range sortedKeys(driveFiles) {
			for _, id := range driveFiles[category] {
				sources = append(sources, DriveSource(category, id))
			}
		}
	}

	return sources
}

// DriveSource builds the direct-download source for a Drive link or id. It
// returns an empty Source when no id can be extracted.
func DriveSource(category, linkOrID string) Source {
	id := ExtractFileID(linkOrID)
	if id == "" {
		return Source{}
	}
	return Source{
		Category:    category,
		Competition: driveCompetition,
		URL:         driveDownloadURL + id,
		FileName:    id + ".csv",
	}
}

var (
	driveIDPattern   = regexp.MustCompile(`^[a-zA-Z0-9_-]{10,}$`)
	drivePathPattern = regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)
)

// ExtractFileID accepts .../uc?id=X, .../file/d/X/view or a bare id
func ExtractFileID(linkOrID string) string {
	s := strings.TrimSpace(linkOrID)
	if strings.HasPrefix(s, "http") {
		if u, err := url.Parse(s); err == nil {
			if id := u.Query().Get("id"); id != "" {
				return id
			}
		}
		if m := drivePathPattern.FindStringSubmatch(s); m != nil {
			return m[1]
		}
		return ""
	}
	if driveIDPattern.MatchString(s) {
		return s
	}
	return ""
}

func fileNameFromURL(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		return path.Base(u.Path)
	}
	return path.Base(raw)
}
