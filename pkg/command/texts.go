package command

const (
	setPersonaCommand    = "/set-train"
	getPersonaCommand    = "/get-train"
	deletePersonaCommand = "/del-train"
	imageCommand         = "/image"
	skipChatCommand      = "/skip-chat"
	noSkipChatCommand    = "/no-skip-chat"

	// ChatPrefix opens free chat in a group that has not enabled skip-chat.
	ChatPrefix = "/chat"
)

var (
	helpKeywords  = []string{"/help", "help", "/指令", "指令", "使用說明"}
	clearKeywords = []string{"/clear", "clear", "/清除", "清除", "清除記憶", "忘記"}
)

const (
	setPersonaDone    = "設定完成~"
	deletePersonaDone = "清除完成~"
	clearHistoryDone  = "已清除對話紀錄，我們重新開始吧~"
	skipChatOn        = "已開啟免前綴聊天，群組內的每則訊息我都會回覆~"
	skipChatOff       = "已關閉免前綴聊天，請用 " + ChatPrefix + " <訊息> 跟我聊天~"

	personaUsage = "目前沒有設定訓練內容，使用 " + setPersonaCommand + " <內容> 來設定~"
	imageUsage   = "使用方式：" + imageCommand + " [256|512|1024] <圖片描述>"
)

const helpIndividual = `可用指令：
/help：顯示這份說明
/clear：清除對話紀錄
/set-train <內容>：設定訓練內容（角色設定）
/get-train：查看訓練內容
/del-train：刪除訓練內容
/image [256|512|1024] <描述>：產生圖片

直接傳文字或語音訊息就可以跟我聊天~`

const helpGroup = `可用指令：
/help：顯示這份說明
/clear：清除對話紀錄
/set-train <內容>：設定訓練內容（角色設定）
/get-train：查看訓練內容
/del-train：刪除訓練內容
/image [256|512|1024] <描述>：產生圖片
/skip-chat：不需前綴即可聊天
/no-skip-chat：恢復需要前綴才聊天

在群組中請用 ` + ChatPrefix + ` <訊息> 跟我聊天~`
