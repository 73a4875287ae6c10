package conf

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

/* ========================================================================
 * Config Loader - 配置加载器
 * ========================================================================
 * 职责: 读取 YAML 配置, 展开 ${VAR:-default} 占位符, 叠加环境变量
 * 优先级: WORKSHOP_ 前缀环境变量 > 配置文件 > 占位符默认值
 * ======================================================================== */

// envPrefix 环境变量前缀, 如 WORKSHOP_SERVER_PORT 覆盖 server.port
const envPrefix = "WORKSHOP"

// Loader 定义配置加载接口
type Loader interface {
	Load(config any) error
}

type fileLoader struct {
	path string // 完整文件路径, 如 ./configs/config.yaml
	typ  string // yaml, json 等
}

// NewLoader 创建配置加载器
// dir: 配置目录; name: 文件名（不含扩展名）; typ: 文件类型
func NewLoader(dir, name, typ string) Loader {
	return &fileLoader{
		path: filepath.Join(dir, name+"."+typ),
		typ:  typ,
	}
}

// 占位符形如 ${VAR} 或 ${VAR:-default}
var envPlaceholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// expandEnvPlaceholders 按 bash 的 ${VAR:-default} 语义展开:
// 变量未设置或为空字符串时取 default, 两者皆空得到空串
func expandEnvPlaceholders(raw string) string {
	return envPlaceholderPattern.ReplaceAllStringFunc(raw, func(match string) string {
		sub := envPlaceholderPattern.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(sub[1]); ok && val != "" {
			return val
		}
		return sub[2]
	})
}

// Load 读取配置到目标结构
// 配置文件缺失不视为错误: 全部字段走环境变量或零值, 便于容器化部署
func (l *fileLoader) Load(config any) error {
	v := viper.New()
	v.SetConfigType(l.typ)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	raw, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	} else {
		expanded := expandEnvPlaceholders(string(raw))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return err
		}
	}

	return v.Unmarshal(config)
}
