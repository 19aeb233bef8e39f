package matcher

// defaultAliases maps a canonical application key to the colloquial names
// users reach for, mostly Chinese. Keys are matched against app names by
// substring in either direction, so "chrome" covers "Google Chrome".
func defaultAliases() map[string][]string {
	return map[string][]string{
		"chrome":      {"谷歌浏览器", "浏览器", "上网"},
		"firefox":     {"火狐浏览器", "火狐"},
		"safari":      {"苹果浏览器"},
		"edge":        {"微软浏览器", "edge浏览器"},
		"word":        {"文字处理", "文档编辑"},
		"excel":       {"电子表格", "表格处理"},
		"powerpoint":  {"演示文稿", "幻灯片"},
		"outlook":     {"邮件客户端"},
		"vscode":      {"代码编辑器", "vs code"},
		"pycharm":     {"python编辑器"},
		"intellij":    {"idea"},
		"photoshop":   {"ps", "图片编辑"},
		"illustrator": {"ai", "矢量图"},
		"spotify":     {"音乐播放器"},
		"itunes":      {"苹果音乐"},
		"vlc":         {"视频播放器"},
		"zoom":        {"视频会议"},
		"teams":       {"团队协作"},
		"wechat":      {"微信"},
		"qq":          {"腾讯qq"},
		"whatsapp":    {"聊天工具"},
	}
}
